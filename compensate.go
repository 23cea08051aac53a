package bme280

import "math"

// RawSample is one decoded measurement burst.
type RawSample struct {
	Pressure    uint32 // 20 bit
	Temperature uint32 // 20 bit
	Humidity    uint32 // 16 bit
}

// Sample is a compensated measurement.
type Sample struct {
	Temperature float64 `json:"temperature"` // °C
	Pressure    float64 `json:"pressure"`    // Pa
	Humidity    float64 `json:"humidity"`    // %RH, within [0, 100]
}

// decodeRaw splits the 0xF7..0xFE burst. The low nibble of press_xlsb and
// temp_xlsb is always zero on a correctly framed read.
func decodeRaw(buf []byte) (RawSample, bool) {
	if len(buf) != dataLen || buf[2]&0x0F != 0 || buf[5]&0x0F != 0 {
		return RawSample{}, false
	}
	return RawSample{
		Pressure:    uint32(buf[0])<<12 | uint32(buf[1])<<4 | uint32(buf[2])>>4,
		Temperature: uint32(buf[3])<<12 | uint32(buf[4])<<4 | uint32(buf[5])>>4,
		Humidity:    uint32(buf[6])<<8 | uint32(buf[7]),
	}, true
}

// Compensate converts raw into physical units. Temperature is computed first
// because pressure and humidity both consume its fine temperature.
func Compensate(raw RawSample, c *Calibration) Sample {
	t, tFine := CompensateTemperature(raw.Temperature, c)
	return Sample{
		Temperature: t,
		Pressure:    CompensatePressure(raw.Pressure, tFine, c),
		Humidity:    CompensateHumidity(raw.Humidity, tFine, c),
	}
}

// CompensateTemperature returns the temperature in °C and the fine
// temperature shared with the pressure and humidity formulas.
func CompensateTemperature(adc uint32, c *Calibration) (float64, float64) {
	raw := float64(adc)
	t1 := float64(c.T1)
	t2 := float64(c.T2)
	t3 := float64(c.T3)

	v1 := (raw/16384.0 - t1/1024.0) * t2
	v2 := (raw/131072.0 - t1/8192.0) * (raw/131072.0 - t1/8192.0) * t3

	return (v1 + v2) / 5120.0, math.Floor(v1 + v2)
}

// CompensatePressure returns the pressure in Pa. tFine must come from the
// same burst as adc.
func CompensatePressure(adc uint32, tFine float64, c *Calibration) float64 {
	p1 := float64(c.P1)
	p2 := float64(c.P2)
	p3 := float64(c.P3)
	p4 := float64(c.P4)
	p5 := float64(c.P5)
	p6 := float64(c.P6)
	p7 := float64(c.P7)
	p8 := float64(c.P8)
	p9 := float64(c.P9)

	v1 := tFine/2.0 - 64000.0
	v2 := v1 * v1 * p6 / 32768.0
	v2 = v2 + v1*p5*2.0
	v2 = v2/4.0 + p4*65536.0
	v1 = (p3*v1*v1/524288.0 + p2*v1) / 524288.0
	v1 = (1.0 + v1/32768.0) * p1
	if v1 == 0 {
		return 0
	}

	p := 1048576.0 - float64(adc)
	p = (p - v2/4096.0) * 6250.0 / v1
	v1 = p9 * p * p / 2147483648.0
	v2 = p * p8 / 32768.0
	return p + (v1+v2+p7)/16.0
}

// CompensateHumidity returns the relative humidity in %, clamped to
// [0, 100].
func CompensateHumidity(adc uint32, tFine float64, c *Calibration) float64 {
	h1 := float64(c.H1)
	h2 := float64(c.H2)
	h3 := float64(c.H3)
	h4 := float64(c.H4)
	h5 := float64(c.H5)
	h6 := float64(c.H6)

	h := tFine - 76800.0
	h = (float64(adc) - (h4*64.0 + h5/16384.0*h)) * (h2 / 65536.0 * (1.0 + h6/67108864.0*h*(1.0+h3/67108864.0*h)))
	h = h * (1.0 - h1*h/524288.0)

	switch {
	case h > 100:
		return 100
	case h < 0 || math.IsNaN(h):
		return 0
	}
	return h
}
