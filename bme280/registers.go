package bme280

// Register map.
const (
	regID        = 0xD0
	regReset     = 0xE0
	regStatus    = 0xF3
	regCtrlHum   = 0xF2
	regCtrlMeas  = 0xF4
	regConfig    = 0xF5
	regCalibTP   = 0x88
	regCalibH    = 0xE1
	regPressMSB  = 0xF7
	chipID       = 0x60
	resetCommand = 0xB6

	calibTPLen = 26
	calibHLen  = 7
	dataLen    = 8

	// statusImUpdate is set while the NVM calibration data is being copied
	// to the image registers.
	statusImUpdate = 0x01
	// statusMeasuring is set while a conversion is running.
	statusMeasuring = 0x08
)

// Default I²C addresses. SDO tied to GND selects 0x76, to VDDIO 0x77.
const (
	AddrPrimary   uint16 = 0x76
	AddrSecondary uint16 = 0x77
)
