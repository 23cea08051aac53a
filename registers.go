package bme280

// I²C addresses.
const (
	Address    uint16 = 0x76
	AddressAlt uint16 = 0x77
)

const (
	regCalib1   = 0x88 // dig_T1 .. dig_H1, 26 bytes
	regChipID   = 0xD0
	regReset    = 0xE0
	regCalib2   = 0xE1 // dig_H2 .. dig_H6, 7 bytes
	regCtrlHum  = 0xF2
	regStatus   = 0xF3
	regCtrlMeas = 0xF4
	regConfig   = 0xF5
	regData     = 0xF7 // press_msb .. hum_lsb, 8 bytes

	chipID       = 0x60
	resetCommand = 0xB6

	calib1Len = 26
	calib2Len = 7
	dataLen   = 8

	statusMeasuring = 0x08
	statusImUpdate  = 0x01
)

// Oversampling x16 on every channel, IIR filter off.
const (
	oversample16 = 0x05

	modeSleep  = 0x00
	modeForced = 0x01

	ctrlHum        = oversample16
	ctrlMeasSleep  = oversample16<<5 | oversample16<<2 | modeSleep
	ctrlMeasForced = oversample16<<5 | oversample16<<2 | modeForced
	configNoFilter = 0x00
)
