package bme280

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3"
)

// RegisterBus is raw 8-bit register access on one slave device. It knows
// nothing about the BME280 protocol. Implementations never retry; a failed
// or short transfer is returned as a *BusError.
type RegisterBus interface {
	WriteRegister(reg, value byte) error
	ReadRegister(reg byte) (byte, error)
	// ReadBlock reads n consecutive registers starting at reg, relying on
	// the device's auto-incrementing register pointer.
	ReadBlock(reg byte, n int) ([]byte, error)
	String() string
}

// I2CBus implements RegisterBus on top of a periph connection that is
// already bound to the slave address, typically an i2c.Dev.
type I2CBus struct {
	c conn.Conn
}

// NewI2CBus wraps c.
func NewI2CBus(c conn.Conn) *I2CBus {
	return &I2CBus{c: c}
}

func (b *I2CBus) String() string {
	return b.c.String()
}

func (b *I2CBus) WriteRegister(reg, value byte) error {
	if err := b.c.Tx([]byte{reg, value}, nil); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (b *I2CBus) ReadRegister(reg byte) (byte, error) {
	var buf [1]byte
	if err := b.c.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	return buf[0], nil
}

func (b *I2CBus) ReadBlock(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, &BusError{Op: "read block", Reg: reg, Err: errors.Errorf("invalid length %d", n)}
	}
	buf := make([]byte, n)
	if err := b.c.Tx([]byte{reg}, buf); err != nil {
		return nil, &BusError{Op: "read block", Reg: reg, Err: err}
	}
	return buf, nil
}
