package pca9685

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrescale(t *testing.T) {
	// Datasheet example: 200Hz gives 0x1e.
	assert.Equal(t, byte(0x1e), Prescale(200))
	// The old servo rate.
	assert.Equal(t, byte(0x79), Prescale(50))
	// Clamped at both ends.
	assert.Equal(t, byte(3), Prescale(100000))
	assert.Equal(t, byte(255), Prescale(1))
}

func TestRegisters(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0x10}, Registers(0))
	assert.Equal(t, []byte{0, 0x10, 0, 0}, Registers(Resolution))
	assert.Equal(t, []byte{0, 0, 0x00, 0x08}, Registers(2048))
	assert.Equal(t, []byte{0, 0, 0xff, 0x0f}, Registers(4095))
}

func TestChannel(t *testing.T) {
	ch := &Channel{Chip: Dummy(), Port: 3}
	assert.Equal(t, Resolution, ch.Period())
	assert.NoError(t, ch.SetDuty(100))
}
