package bme280

import (
	"sync"

	"periph.io/x/conn/v3/i2c"
)

// RegisterBus is the byte oriented register access the driver needs.
//
// The first byte returned by ReadBurst belongs to reg, the following ones to
// the next sequential registers.
type RegisterBus interface {
	Write(addr uint16, reg, value byte) error
	ReadBurst(addr uint16, reg byte, n int) ([]byte, error)
}

// I2CBus adapts a periph I²C bus to RegisterBus.
//
// Every call holds the bus for the whole transaction so a register select and
// the read that follows it cannot be split by another user of the same
// I2CBus. It does not retry.
type I2CBus struct {
	mu  sync.Mutex
	bus i2c.Bus
}

// NewI2CBus wraps bus.
func NewI2CBus(bus i2c.Bus) *I2CBus {
	return &I2CBus{bus: bus}
}

func (b *I2CBus) String() string {
	return b.bus.String()
}

// Write writes value to register reg of the device at addr.
func (b *I2CBus) Write(addr uint16, reg, value byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bus.Tx(addr, []byte{reg, value}, nil)
}

// ReadBurst selects reg and reads n consecutive registers using a repeated
// start.
func (b *I2CBus) ReadBurst(addr uint16, reg byte, n int) ([]byte, error) {
	read := make([]byte, n)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.bus.Tx(addr, []byte{reg}, read); err != nil {
		return nil, err
	}
	return read, nil
}

var _ RegisterBus = (*I2CBus)(nil)
