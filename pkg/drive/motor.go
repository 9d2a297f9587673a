package drive

import (
	"fmt"

	"github.com/tigerbot-team/tennisbot/pkg/pwm"
)

const MaxSpeed = 255

// Clamp limits speed to [-MaxSpeed, MaxSpeed].
func Clamp(speed int) int {
	if speed > MaxSpeed {
		return MaxSpeed
	}
	if speed < -MaxSpeed {
		return -MaxSpeed
	}
	return speed
}

// Duty maps a speed onto a duty cycle for a channel with the given period,
// rounding to the nearest unit.
func Duty(speed, period int) int {
	speed = Clamp(speed)
	if speed < 0 {
		speed = -speed
	}
	return (speed*period + MaxSpeed/2) / MaxSpeed
}

// Motor is one wheel motor on an H-bridge with a PWM line per direction.
type Motor struct {
	Name    string
	forward pwm.Channel
	reverse pwm.Channel
}

func NewMotor(name string, forward, reverse pwm.Channel) *Motor {
	return &Motor{
		Name:    name,
		forward: forward,
		reverse: reverse,
	}
}

// SetSpeed drives the forward line for positive speeds and the reverse line
// for negative ones.  The other line is always zeroed first so the two are
// never driven together.
func (m *Motor) SetSpeed(speed int) error {
	speed = Clamp(speed)
	switch {
	case speed > 0:
		return m.set(Duty(speed, m.forward.Period()), m.forward, m.reverse)
	case speed < 0:
		return m.set(Duty(speed, m.reverse.Period()), m.reverse, m.forward)
	default:
		return m.set(0, m.forward, m.reverse)
	}
}

// Brake shorts the motor by driving both lines fully on.
func (m *Motor) Brake() error {
	if err := m.forward.SetDuty(m.forward.Period()); err != nil {
		return fmt.Errorf("%s motor: brake: %w", m.Name, err)
	}
	if err := m.reverse.SetDuty(m.reverse.Period()); err != nil {
		return fmt.Errorf("%s motor: brake: %w", m.Name, err)
	}
	return nil
}

// Coast lets the motor freewheel.
func (m *Motor) Coast() error {
	return m.set(0, m.forward, m.reverse)
}

// set zeroes off and then writes onDuty to on.
func (m *Motor) set(onDuty int, on, off pwm.Channel) error {
	if err := off.SetDuty(0); err != nil {
		return fmt.Errorf("%s motor: %w", m.Name, err)
	}
	if err := on.SetDuty(onDuty); err != nil {
		return fmt.Errorf("%s motor: %w", m.Name, err)
	}
	return nil
}
