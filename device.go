// Package bme280 controls a Bosch BME280 temperature, pressure and humidity
// sensor in forced mode over I²C, and serves its readings.
//
// The device is configured with x16 oversampling on all three channels and
// the IIR filter off. Each Refresh triggers one conversion, polls the status
// register until it completes and compensates the raw counts with the
// factory calibration read during Reset.
//
// Datasheet:
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme280-ds002.pdf
package bme280

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// State is the life-cycle state of a Dev.
type State int

const (
	Uninitialized State = iota
	Resetting
	Configuring
	Ready
	Measuring
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resetting:
		return "resetting"
	case Configuring:
		return "configuring"
	case Ready:
		return "ready"
	case Measuring:
		return "measuring"
	}
	return "unknown"
}

// Opts holds the driver options. Zero fields take their value from
// DefaultOpts.
type Opts struct {
	// Address is the slave address, 0x76 or 0x77.
	Address uint16
	// PollInterval is the sleep between two status register reads.
	PollInterval time.Duration
	// Timeout bounds every busy-wait on the status register.
	Timeout time.Duration
	// Logger receives the chip id at Info level and raw bursts at Debug
	// level.
	Logger logrus.FieldLogger
	// Clock drives the busy-waits.
	Clock Clock
}

// DefaultOpts is used when nil is passed or for fields left at zero.
var DefaultOpts = Opts{
	Address:      Address,
	PollInterval: 2 * time.Millisecond,
	Timeout:      500 * time.Millisecond,
}

func (o *Opts) withDefaults() Opts {
	r := DefaultOpts
	if o != nil {
		if o.Address != 0 {
			r.Address = o.Address
		}
		if o.PollInterval > 0 {
			r.PollInterval = o.PollInterval
		}
		if o.Timeout > 0 {
			r.Timeout = o.Timeout
		}
		r.Logger = o.Logger
		r.Clock = o.Clock
	}
	if r.Logger == nil {
		r.Logger = logrus.StandardLogger()
	}
	if r.Clock == nil {
		r.Clock = systemClock{}
	}
	return r
}

// Dev is a handle to one BME280. It is not safe for concurrent use.
type Dev struct {
	bus     RegisterBus
	opts    Opts
	log     logrus.FieldLogger
	closer  io.Closer
	session string

	state      State
	calibrated bool
	cal        Calibration
	sample     Sample
	sampled    bool
}

// New resets and configures the device behind bus.
func New(bus RegisterBus, opts *Opts) (*Dev, error) {
	o := opts.withDefaults()
	d := &Dev{
		bus:  bus,
		opts: o,
		log:  o.Logger.WithField("device", bus.String()),
	}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewI2C binds b to the configured slave address and resets the device.
// Only one Dev may exist per bus and address until it is closed. The bus is
// not closed by Close.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := opts.withDefaults()
	key := sessionKey(b.String(), o.Address)
	if err := claimSession(key); err != nil {
		return nil, err
	}
	d, err := New(NewI2CBus(&i2c.Dev{Bus: b, Addr: o.Address}), &o)
	if err != nil {
		releaseSession(key)
		return nil, err
	}
	d.session = key
	return d, nil
}

// Open initializes the host drivers, opens the named I²C bus ("" for the
// first one) and resets the device on it. Close releases the bus.
func Open(name string, opts *Opts) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize host")
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I²C bus %q", name)
	}
	d, err := NewI2C(b, opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	d.closer = b
	return d, nil
}

// OpenSerial is Open for a sensor hanging off a serial I²C bridge.
func OpenSerial(port string, baud int, opts *Opts) (*Dev, error) {
	b, err := OpenSerialBridge(port, baud)
	if err != nil {
		return nil, err
	}
	d, err := NewI2C(b, opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	d.closer = b
	return d, nil
}

func (d *Dev) String() string {
	return "BME280{" + d.bus.String() + "}"
}

// Reset runs the full initialization sequence: chip id check, soft reset,
// calibration read, configuration and two priming measurements. On failure
// the device is left Uninitialized without calibration.
func (d *Dev) Reset() error {
	d.state = Resetting
	d.calibrated = false
	d.cal = Calibration{}
	d.sample = Sample{}
	d.sampled = false
	if err := d.reset(); err != nil {
		d.state = Uninitialized
		d.calibrated = false
		d.cal = Calibration{}
		return err
	}
	return nil
}

func (d *Dev) reset() error {
	d.log.Debugf("bound to %s", d.bus)

	id, err := d.bus.ReadRegister(regChipID)
	if err != nil {
		return err
	}
	d.log.Infof("chip id %#02x", id)
	if id != chipID {
		return errors.Wrapf(ErrProtocol, "chip id %#02x, want %#02x", id, chipID)
	}

	if err := d.bus.WriteRegister(regReset, resetCommand); err != nil {
		return err
	}
	if err := d.waitStatus(statusImUpdate); err != nil {
		return errors.Wrap(err, "waiting for calibration copy")
	}

	tp, err := d.bus.ReadBlock(regCalib1, calib1Len)
	if err != nil {
		return err
	}
	h, err := d.bus.ReadBlock(regCalib2, calib2Len)
	if err != nil {
		return err
	}
	cal, err := ParseCalibration(tp, h)
	if err != nil {
		return err
	}
	d.log.Debugf("calibration %+v", cal)

	d.state = Configuring
	// ctrl_hum only takes effect after the following ctrl_meas write.
	config := []struct{ reg, value byte }{
		{regCtrlHum, ctrlHum},
		{regCtrlMeas, ctrlMeasSleep},
		{regConfig, configNoFilter},
	}
	for _, c := range config {
		if err := d.bus.WriteRegister(c.reg, c.value); err != nil {
			return err
		}
	}

	d.cal = cal
	d.calibrated = true
	d.state = Ready

	// The first samples after a reset are unreliable and are dropped.
	for i := 0; i < 2; i++ {
		if _, err := d.measure(); err != nil {
			return errors.Wrap(err, "priming measurement")
		}
	}
	return nil
}

// Refresh performs one forced conversion and replaces the stored sample.
// On error the previous sample is kept.
func (d *Dev) Refresh() error {
	s, err := d.measure()
	if err != nil {
		return err
	}
	d.sample = s
	d.sampled = true
	return nil
}

// measure runs one forced conversion without committing the result.
func (d *Dev) measure() (Sample, error) {
	if d.state != Ready {
		return Sample{}, errors.Wrapf(ErrNotReady, "refresh while %s", d.state)
	}
	d.state = Measuring
	defer func() { d.state = Ready }()

	if err := d.bus.WriteRegister(regCtrlMeas, ctrlMeasForced); err != nil {
		return Sample{}, err
	}
	if err := d.waitStatus(statusMeasuring); err != nil {
		return Sample{}, errors.Wrap(err, "waiting for conversion")
	}
	buf, err := d.bus.ReadBlock(regData, dataLen)
	if err != nil {
		return Sample{}, err
	}
	d.log.Debugf("burst % x", buf)

	raw, ok := decodeRaw(buf)
	if !ok {
		return Sample{}, errors.Wrapf(ErrLogic, "reserved bits set in burst % x", buf)
	}
	s := Compensate(raw, &d.cal)
	d.log.WithFields(logrus.Fields{
		"temperature": s.Temperature,
		"pressure":    s.Pressure,
		"humidity":    s.Humidity,
	}).Debug("sample")
	return s, nil
}

// waitStatus polls the status register until every bit in mask is clear.
func (d *Dev) waitStatus(mask byte) error {
	clock := d.opts.Clock
	deadline := clock.Now().Add(d.opts.Timeout)
	for {
		st, err := d.bus.ReadRegister(regStatus)
		if err != nil {
			return err
		}
		if st&mask == 0 {
			return nil
		}
		if !clock.Now().Before(deadline) {
			return errors.Wrapf(ErrTimeout, "status %#02x after %s", st, d.opts.Timeout)
		}
		clock.Sleep(d.opts.PollInterval)
	}
}

// Sense refreshes and writes the sample into e in periph units.
func (d *Dev) Sense(e *physic.Env) error {
	if err := d.Refresh(); err != nil {
		return err
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(d.sample.Temperature*float64(physic.Kelvin))
	e.Pressure = physic.Pressure(d.sample.Pressure * float64(physic.Pascal))
	e.Humidity = physic.RelativeHumidity(d.sample.Humidity * float64(physic.PercentRH))
	return nil
}

// Halt puts the device in sleep mode. A later Refresh wakes it again.
func (d *Dev) Halt() error {
	return d.bus.WriteRegister(regCtrlMeas, ctrlMeasSleep)
}

// Close releases the bus session.
func (d *Dev) Close() error {
	if d.session != "" {
		releaseSession(d.session)
		d.session = ""
	}
	d.state = Uninitialized
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

func (d *Dev) State() State { return d.state }

// Sample returns the last committed sample. It is the zero Sample until the
// first successful Refresh after Reset, and may be stale if the latest
// Refresh failed.
func (d *Dev) Sample() Sample { return d.sample }

// Sampled reports whether a Refresh has committed a sample since Reset.
func (d *Dev) Sampled() bool { return d.sampled }

func (d *Dev) Temperature() float64 { return d.sample.Temperature }
func (d *Dev) Pressure() float64    { return d.sample.Pressure }
func (d *Dev) Humidity() float64    { return d.sample.Humidity }

// Calibration returns the coefficients read by the last successful Reset.
func (d *Dev) Calibration() (Calibration, bool) {
	return d.cal, d.calibrated
}
