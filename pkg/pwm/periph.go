package pwm

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

var initOnce struct {
	sync.Once
	err error
}

// Periph is a PWM-capable GPIO pin driven through periph.io.  Duty is in
// nanoseconds, like the sysfs channel.
type Periph struct {
	pin    gpio.PinIO
	period int
	freq   physic.Frequency
}

// OpenPeriph looks up the pin by name (e.g. "GPIO12") and sets it to zero duty.
func OpenPeriph(name string, periodNS int) (*Periph, error) {
	initOnce.Do(func() {
		_, initOnce.err = host.Init()
	})
	if initOnce.err != nil {
		return nil, fmt.Errorf("failed to initialise periph: %w", initOnce.err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such pin %q", name)
	}
	if periodNS <= 0 {
		return nil, fmt.Errorf("bad period %d", periodNS)
	}
	p := &Periph{
		pin:    pin,
		period: periodNS,
		freq:   physic.Frequency(int64(physic.Hertz) * int64(time.Second) / int64(periodNS)),
	}
	if err := p.SetDuty(0); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Periph) Period() int {
	return p.period
}

func (p *Periph) SetDuty(duty int) error {
	d := gpio.Duty(int64(duty) * int64(gpio.DutyMax) / int64(p.period))
	if err := p.pin.PWM(d, p.freq); err != nil {
		return fmt.Errorf("failed to set PWM on %s: %w", p.pin.Name(), err)
	}
	return nil
}
