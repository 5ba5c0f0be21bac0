package bme280

// FineTemperature carries t_fine, the scaled temperature the pressure and
// humidity formulas depend on.
//
// Only CompensateTemperature produces one. It is valid for the measurement
// cycle whose raw temperature it was computed from: handing a token from an
// earlier cycle to CompensatePressure or CompensateHumidity yields plausible
// but wrong values. The zero value is never produced and is meaningless.
type FineTemperature struct {
	v int32
}

// Value returns the raw t_fine scalar.
func (f FineTemperature) Value() int32 {
	return f.v
}

// CompensateTemperature converts a raw 20-bit temperature code to °C.
//
// Double precision formula from section 8.1 of the BME280 datasheet. The
// fine temperature is var1+var2 truncated toward zero, the datasheet's
// (BME280_S32_t) cast, not rounded to nearest.
func (c *Calibration) CompensateTemperature(raw int32) (float64, FineTemperature) {
	t1 := float64(c.T1)
	x := float64(raw)/16384.0 - t1/1024.0
	var1 := x * float64(c.T2)
	y := float64(raw)/131072.0 - t1/8192.0
	var2 := y * y * float64(c.T3)
	return (var1 + var2) / 5120.0, FineTemperature{v: int32(var1 + var2)}
}

// CompensatePressure converts a raw 20-bit pressure code to Pa.
//
// It returns 0 when the P1 term is zero instead of dividing by it.
func (c *Calibration) CompensatePressure(raw int32, t FineTemperature) float64 {
	var1 := float64(t.v)/2.0 - 64000.0
	var2 := var1 * var1 * float64(c.P6) / 32768.0
	var2 += var1 * float64(c.P5) * 2.0
	var2 = var2/4.0 + float64(c.P4)*65536.0
	var1 = (float64(c.P3)*var1*var1/524288.0 + float64(c.P2)*var1) / 524288.0
	var1 = (1.0 + var1/32768.0) * float64(c.P1)
	if var1 == 0 {
		return 0
	}
	p := 1048576.0 - float64(raw)
	p = (p - var2/4096.0) * 6250.0 / var1
	var1 = float64(c.P9) * p * p / 2147483648.0
	var2 = p * float64(c.P8) / 32768.0
	return p + (var1+var2+float64(c.P7))/16.0
}

// CompensateHumidity converts a raw 16-bit humidity code to %RH, clamped to
// [0, 100].
func (c *Calibration) CompensateHumidity(raw int32, t FineTemperature) float64 {
	h := float64(t.v) - 76800.0
	h = (float64(raw) - (float64(c.H4)*64.0 + float64(c.H5)/16384.0*h)) *
		(float64(c.H2) / 65536.0 * (1.0 + float64(c.H6)/67108864.0*h*(1.0+float64(c.H3)/67108864.0*h)))
	h *= 1.0 - float64(c.H1)*h/524288.0
	switch {
	case h > 100:
		return 100
	case h < 0:
		return 0
	}
	return h
}

// Compensate converts one burst, temperature first.
func (c *Calibration) Compensate(s RawSample) Measurement {
	celsius, fine := c.CompensateTemperature(s.Temperature)
	return Measurement{
		Celsius:   celsius,
		Pascals:   c.CompensatePressure(s.Pressure, fine),
		PercentRH: c.CompensateHumidity(s.Humidity, fine),
	}
}
