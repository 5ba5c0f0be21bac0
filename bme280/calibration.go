package bme280

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Calibration holds the factory trimming coefficients of one device.
//
// It is immutable once decoded and safe to share between readers.
type Calibration struct {
	T1     uint16
	T2, T3 int16

	P1                             uint16
	P2, P3, P4, P5, P6, P7, P8, P9 int16

	H1     uint8
	H2     int16
	H3     uint8
	H4, H5 int16
	H6     int8
}

// DecodeCalibration parses the 26 bytes read from 0x88 and the 7 bytes read
// from 0xE1.
func DecodeCalibration(tp, h []byte) (*Calibration, error) {
	if len(tp) != calibTPLen {
		return nil, errors.Errorf("bme280: calibration block 1 is %d bytes, want %d", len(tp), calibTPLen)
	}
	if len(h) != calibHLen {
		return nil, errors.Errorf("bme280: calibration block 2 is %d bytes, want %d", len(h), calibHLen)
	}
	c := &Calibration{
		T1: binary.LittleEndian.Uint16(tp[0:]),
		T2: int16(binary.LittleEndian.Uint16(tp[2:])),
		T3: int16(binary.LittleEndian.Uint16(tp[4:])),

		P1: binary.LittleEndian.Uint16(tp[6:]),
		P2: int16(binary.LittleEndian.Uint16(tp[8:])),
		P3: int16(binary.LittleEndian.Uint16(tp[10:])),
		P4: int16(binary.LittleEndian.Uint16(tp[12:])),
		P5: int16(binary.LittleEndian.Uint16(tp[14:])),
		P6: int16(binary.LittleEndian.Uint16(tp[16:])),
		P7: int16(binary.LittleEndian.Uint16(tp[18:])),
		P8: int16(binary.LittleEndian.Uint16(tp[20:])),
		P9: int16(binary.LittleEndian.Uint16(tp[22:])),

		// tp[24] (0xA0) is reserved.
		H1: tp[25],
		H2: int16(binary.LittleEndian.Uint16(h[0:])),
		H3: h[2],
		H4: unpackH4(h),
		H5: unpackH5(h),
		H6: int8(h[6]),
	}
	return c, nil
}

// unpackH4 reads the 12-bit H4 from 0xE4[7:0] and 0xE5[3:0].
func unpackH4(h []byte) int16 {
	return signExtend12(uint16(h[3])<<4 | uint16(h[4]&0x0F))
}

// unpackH5 reads the 12-bit H5 from 0xE6[7:0] and 0xE5[7:4].
func unpackH5(h []byte) int16 {
	return signExtend12(uint16(h[5])<<4 | uint16(h[4]>>4))
}

// signExtend12 interprets the low 12 bits of v as two's complement.
func signExtend12(v uint16) int16 {
	v &= 0x0FFF
	if v&0x0800 != 0 {
		v |= 0xF000
	}
	return int16(v)
}
