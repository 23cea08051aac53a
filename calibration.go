package bme280

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Calibration holds the factory trimming coefficients. It is read once per
// Reset and never modified afterwards.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16
	H5 int16
	H6 int8
}

// ParseCalibration decodes the 26 byte block at 0x88 and the 7 byte block at
// 0xE1. Every field is decoded explicitly; the layout mixes little-endian
// words with two 12-bit values that share a nibble.
func ParseCalibration(tp, h []byte) (Calibration, error) {
	var c Calibration
	if len(tp) != calib1Len {
		return c, errors.Wrapf(ErrLogic, "calibration block 1 is %d bytes, want %d", len(tp), calib1Len)
	}
	if len(h) < calib2Len {
		return c, errors.Wrapf(ErrLogic, "calibration block 2 is %d bytes, want %d", len(h), calib2Len)
	}

	c.T1 = binary.LittleEndian.Uint16(tp[0:2])
	c.T2 = int16(binary.LittleEndian.Uint16(tp[2:4]))
	c.T3 = int16(binary.LittleEndian.Uint16(tp[4:6]))

	c.P1 = binary.LittleEndian.Uint16(tp[6:8])
	c.P2 = int16(binary.LittleEndian.Uint16(tp[8:10]))
	c.P3 = int16(binary.LittleEndian.Uint16(tp[10:12]))
	c.P4 = int16(binary.LittleEndian.Uint16(tp[12:14]))
	c.P5 = int16(binary.LittleEndian.Uint16(tp[14:16]))
	c.P6 = int16(binary.LittleEndian.Uint16(tp[16:18]))
	c.P7 = int16(binary.LittleEndian.Uint16(tp[18:20]))
	c.P8 = int16(binary.LittleEndian.Uint16(tp[20:22]))
	c.P9 = int16(binary.LittleEndian.Uint16(tp[22:24]))

	// tp[24] (0xA0) is undocumented.
	c.H1 = tp[25]

	c.H2 = int16(binary.LittleEndian.Uint16(h[0:2]))
	c.H3 = h[2]
	// 0xE4[7:0] / 0xE5[3:0] and 0xE6[7:0] / 0xE5[7:4]; the msb bytes carry
	// the sign.
	c.H4 = int16(int8(h[3]))<<4 | int16(h[4]&0x0F)
	c.H5 = int16(int8(h[5]))<<4 | int16(h[4]>>4)
	c.H6 = int8(h[6])

	return c, nil
}
