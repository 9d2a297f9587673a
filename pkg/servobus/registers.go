package servobus

import "github.com/pkg/errors"

// Register addresses on the STS3215 family.
const (
	RegTorqueEnable    = 0x28
	RegAcceleration    = 0x29
	RegGoalPosition    = 0x2A
	RegGoalSpeed       = 0x2E
	RegPresentPosition = 0x38
)

// MoveToPosition sets the goal position in raw steps.
func (b *Bus) MoveToPosition(id ServoID, pos int) error {
	if pos < 0 {
		pos = 0
	} else if pos > MaxPosition {
		pos = MaxPosition
	}
	return b.WriteRegister(id, RegGoalPosition, EncodeWord(pos))
}

func (b *Bus) MoveToAngle(id ServoID, angle float64) error {
	return b.WriteRegister(id, RegGoalPosition, EncodeWord(AngleToPosition(angle)))
}

// SetSpeed sets the goal speed.  Values above MaxSpeed are clamped.
func (b *Bus) SetSpeed(id ServoID, speed int) error {
	if speed < 0 {
		speed = 0
	} else if speed > MaxSpeed {
		speed = MaxSpeed
	}
	return b.WriteRegister(id, RegGoalSpeed, EncodeWord(speed))
}

func (b *Bus) SetAcceleration(id ServoID, accel byte) error {
	return b.WriteRegister(id, RegAcceleration, []byte{accel})
}

func (b *Bus) SetTorque(id ServoID, enabled bool) error {
	var v byte
	if enabled {
		v = 1
	}
	return b.WriteRegister(id, RegTorqueEnable, []byte{v})
}

// PresentPosition reads back where the servo actually is, in raw steps.
func (b *Bus) PresentPosition(id ServoID) (int, error) {
	data, err := b.ReadRegister(id, RegPresentPosition, 2, b.readTimeout)
	if err != nil {
		return 0, err
	}
	if len(data) != 2 {
		return 0, errors.Errorf("servo %d: expected 2 position bytes, got %d", id, len(data))
	}
	return DecodeWord(data), nil
}
