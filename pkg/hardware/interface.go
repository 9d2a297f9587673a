package hardware

import (
	"context"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

type Interface interface {
	// Start runs the background loops (screen).
	Start(ctx context.Context)

	Drive() *drive.Controller
	Gripper() *gripper.Gripper
	// Servos gives direct register access, for the bench tools.
	Servos() Servos

	// Cue plays the sound configured for a state name.
	Cue(name string)
	PlaySound(path string)

	// Shutdown coasts the motors and releases every handle.
	Shutdown()
}

// Servos is the servo bus as the bench tools see it.
type Servos interface {
	gripper.Bus
	MoveToPosition(id servobus.ServoID, pos int) error
	Ping(id servobus.ServoID, timeout time.Duration) error
}
