package bme280

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/physic"
)

// Frame markers of the UART I²C bridge firmware.
//
//	request:  0xA5 addr wlen rlen w... chk
//	response: 0x5A status wn rn r... chk
//
// chk is the XOR of every preceding byte of the frame, masked to 7 bits.
const (
	frameRequest  = 0xA5
	frameResponse = 0x5A

	bridgeAck         = 0x00
	bridgeReadTimeout = 200 * time.Millisecond
)

// SerialBridge is an i2c.Bus reached through a microcontroller on a serial
// port. Each Tx is one request/response exchange.
type SerialBridge struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	name string
}

// OpenSerialBridge opens the serial port at baud.
func OpenSerialBridge(name string, baud int) (*SerialBridge, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", name)
	}
	if err := port.SetReadTimeout(bridgeReadTimeout); err != nil {
		port.Close()
		return nil, errors.Wrapf(err, "failed to set read timeout on %s", name)
	}
	return NewSerialBridge(port, name), nil
}

// NewSerialBridge uses an already open port. A Read returning no data and no
// error is treated as a timeout, which is how go.bug.st/serial reports one.
func NewSerialBridge(port io.ReadWriteCloser, name string) *SerialBridge {
	return &SerialBridge{port: port, name: name}
}

func (s *SerialBridge) String() string {
	return "serial:" + s.name
}

// SetSpeed is not supported; the bridge firmware fixes the bus clock.
func (s *SerialBridge) SetSpeed(f physic.Frequency) error {
	return errors.Errorf("i2c bridge: cannot set speed to %s", f)
}

func (s *SerialBridge) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}

func (s *SerialBridge) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errors.Errorf("i2c bridge: invalid address %#x", addr)
	}
	if len(w) > 0xFF || len(r) > 0xFF {
		return errors.Errorf("i2c bridge: transfer too long (w=%d r=%d)", len(w), len(r))
	}

	req := make([]byte, 0, len(w)+5)
	req = append(req, frameRequest, byte(addr), byte(len(w)), byte(len(r)))
	req = append(req, w...)
	req = append(req, checksum(req))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.port.Write(req); err != nil {
		return errors.Wrap(err, "i2c bridge: write failed")
	}

	hdr := make([]byte, 4)
	if err := s.readFull(hdr); err != nil {
		return err
	}
	if hdr[0] != frameResponse {
		return errors.Errorf("i2c bridge: unexpected frame start %#02x", hdr[0])
	}
	n := int(hdr[3])
	body := make([]byte, n+1)
	if err := s.readFull(body); err != nil {
		return err
	}
	if chk := checksum(append(hdr, body[:n]...)); chk != body[n] {
		return errors.Errorf("i2c bridge: checksum mismatch, calculated %02x, received %02x", chk, body[n])
	}
	if hdr[1] != bridgeAck {
		return errors.Errorf("i2c bridge: address %#02x not acknowledged (status %#02x)", addr, hdr[1])
	}
	if wn := int(hdr[2]); wn < len(w) || n < len(r) {
		return errors.Errorf("i2c bridge: short transfer, wrote %d of %d, read %d of %d", wn, len(w), n, len(r))
	}
	copy(r, body[:n])
	return nil
}

func (s *SerialBridge) readFull(buf []byte) error {
	for got := 0; got < len(buf); {
		n, err := s.port.Read(buf[got:])
		if err != nil {
			return errors.Wrap(err, "i2c bridge: read failed")
		}
		if n == 0 {
			return errors.Errorf("i2c bridge: timed out after %d of %d bytes", got, len(buf))
		}
		got += n
	}
	return nil
}

func checksum(b []byte) byte {
	var c byte
	for _, v := range b {
		c ^= v
	}
	return c & 0x7F
}
