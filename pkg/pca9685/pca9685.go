package pca9685

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each output has two 16-bit (low byte first) registers: on time, then
	// off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe

	// Steps per PWM period.
	Resolution = 4096

	// Bit 4 of the high byte of the on or off register forces the output
	// fully on or fully off.
	fullBit = 0x10

	oscillatorHz = 25000000

	DefaultFrequencyHz = 1000
)

type Interface interface {
	Configure(frequencyHz int) error
	// SetDuty sets port to duty steps out of Resolution.  0 and Resolution
	// use the full-off and full-on bits so there are no glitches at the ends.
	SetDuty(port int, duty int) error
	Close() error
}

type PCA9685 struct {
	lock sync.Mutex
	dev  *i2c.Device
}

func New(deviceFile string) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, DefaultAddr)
	if err != nil {
		return nil, err
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

// Prescale returns the pre-scaler value for the requested output frequency.
func Prescale(frequencyHz int) byte {
	if frequencyHz <= 0 {
		frequencyHz = DefaultFrequencyHz
	}
	v := math.Round(float64(oscillatorHz)/(Resolution*float64(frequencyHz))) - 1
	if v < 3 {
		v = 3
	} else if v > 255 {
		v = 255
	}
	return byte(v)
}

func (p *PCA9685) Configure(frequencyHz int) (err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	// The pre-scaler can only be written while asleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	err = p.dev.WriteReg(RegPreScale, []byte{Prescale(frequencyHz)})
	if err != nil {
		return
	}
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Oscillator needs 500us to come back.
	time.Sleep(1 * time.Millisecond)
	// Restart, with register auto-increment.
	err = p.dev.WriteReg(RegMode1, []byte{0xa1})
	return
}

// Registers returns the four on/off register bytes for duty steps.
func Registers(duty int) []byte {
	switch {
	case duty <= 0:
		return []byte{0, 0, 0, fullBit}
	case duty >= Resolution:
		return []byte{0, fullBit, 0, 0}
	default:
		return []byte{0, 0, byte(duty & 0xff), byte(duty >> 8)}
	}
}

func (p *PCA9685) SetDuty(port int, duty int) error {
	if port < 0 || port > 15 {
		return fmt.Errorf("PWM port out of range: %d", port)
	}
	addr := RegLEDBase + port*4
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.WriteReg(byte(addr), Registers(duty))
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

// Channel adapts one port of the chip to a PWM channel with Resolution steps
// per period.
type Channel struct {
	Chip Interface
	Port int
}

func (c *Channel) Period() int {
	return Resolution
}

func (c *Channel) SetDuty(duty int) error {
	return c.Chip.SetDuty(c.Port, duty)
}

func Dummy() Interface {
	return &dummyChip{}
}

type dummyChip struct {
}

func (*dummyChip) Configure(frequencyHz int) error {
	fmt.Printf("PCA9685 (dummy): %dHz\n", frequencyHz)
	return nil
}

func (*dummyChip) SetDuty(port int, duty int) error {
	return nil
}

func (*dummyChip) Close() error {
	return nil
}
