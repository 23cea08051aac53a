package bme280

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2CBus(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x76, W: []byte{0xF4, 0xB5}},
			{Addr: 0x76, W: []byte{0xD0}, R: []byte{0x60}},
			{Addr: 0x76, W: []byte{0x88}, R: testCalib1},
		},
		DontPanic: true,
	}
	b := NewI2CBus(&i2c.Dev{Bus: &bus, Addr: 0x76})

	if err := b.WriteRegister(0xF4, 0xB5); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}
	v, err := b.ReadRegister(0xD0)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if v != 0x60 {
		t.Fatalf("ReadRegister = %#x, want 0x60", v)
	}
	blk, err := b.ReadBlock(0x88, len(testCalib1))
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(blk, testCalib1) {
		t.Fatalf("ReadBlock = % x, want % x", blk, testCalib1)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestI2CBusErrors(t *testing.T) {
	bus := i2ctest.Playback{DontPanic: true}
	b := NewI2CBus(&i2c.Dev{Bus: &bus, Addr: 0x76})

	if err := b.WriteRegister(0xF4, 0xB5); !errors.Is(err, ErrBusTransfer) {
		t.Fatalf("WriteRegister error = %v, want ErrBusTransfer", err)
	}
	if _, err := b.ReadRegister(0xD0); !errors.Is(err, ErrBusTransfer) {
		t.Fatalf("ReadRegister error = %v, want ErrBusTransfer", err)
	}
	_, err := b.ReadBlock(0xF7, 8)
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("ReadBlock error = %v, want *BusError", err)
	}
	if be.Reg != 0xF7 || be.Op != "read block" {
		t.Fatalf("BusError = %+v", be)
	}
	if _, err := b.ReadBlock(0xF7, 0); !errors.Is(err, ErrBusTransfer) {
		t.Fatalf("ReadBlock(0) error = %v, want ErrBusTransfer", err)
	}
}
