package bme280

// Calibration blocks carrying the datasheet example coefficients
// (T1=27504 T2=26435 T3=-1000, P1=36477 ... P9=6000) and
// H1=75 H2=362 H3=0 H4=313 H5=50 H6=30.
var (
	testCalib1 = []byte{
		0x70, 0x6B, 0x43, 0x67, 0x18, 0xFC, 0x7D, 0x8E, 0x43, 0xD6, 0xD0, 0x0B, 0x27,
		0x0B, 0x8C, 0x00, 0xF9, 0xFF, 0x8C, 0x3C, 0xF8, 0xC6, 0x70, 0x17, 0x00, 0x4B,
	}
	testCalib2 = []byte{0x6A, 0x01, 0x00, 0x13, 0x29, 0x03, 0x1E}

	// adc_P=415148 adc_T=519888 adc_H=27000
	testBurst = []byte{0x65, 0x5A, 0xC0, 0x7E, 0xED, 0x00, 0x69, 0x78}

	testCal = Calibration{
		T1: 27504, T2: 26435, T3: -1000,
		P1: 36477, P2: -10685, P3: 3024, P4: 2855, P5: 140, P6: -7, P7: 15500, P8: -14600, P9: 6000,
		H1: 75, H2: 362, H3: 0, H4: 313, H5: 50, H6: 30,
	}
	testRaw = RawSample{Pressure: 415148, Temperature: 519888, Humidity: 27000}
)

// Computed once from the vendor double precision formulas for the inputs
// above.
const (
	wantTFine       = 128422.0
	wantTemperature = 25.08247793081682
	wantPressure    = 100653.25814481472
	wantHumidity    = 38.275054276373446
)
