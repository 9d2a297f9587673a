package gripper

import (
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

// Servos on the arm, base outwards.
const (
	ServoBase     servobus.ServoID = 1
	ServoShoulder servobus.ServoID = 2
	ServoElbow    servobus.ServoID = 3
	ServoClaw     servobus.ServoID = 4
)

// Gesture names.
const (
	Grab          = "grab"
	GrabAlternate = "grab-alternate"
	Release       = "release"
	Home          = "home"
	Carry         = "carry"
	Stow          = "stow"
)

// Step moves one servo and then waits Hold before the next step.
type Step struct {
	Servo servobus.ServoID `yaml:"servo"`
	Angle float64          `yaml:"angle"`
	Hold  time.Duration    `yaml:"hold"`
}

type Gesture []Step

// Claw angles.  The claw closes towards smaller angles and stalls at around
// 130 degrees on a tennis ball.
const (
	ClawOpen   = 200
	ClawClosed = 90
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// DefaultGestures returns a fresh copy of the built-in tables.
func DefaultGestures() map[string]Gesture {
	return map[string]Gesture{
		Home: {
			{ServoBase, 180, ms(200)},
			{ServoShoulder, 150, ms(300)},
			{ServoElbow, 120, ms(300)},
			{ServoClaw, ClawOpen, ms(300)},
		},
		Grab: {
			{ServoClaw, ClawOpen, ms(200)},
			{ServoElbow, 200, ms(300)},
			{ServoShoulder, 230, ms(500)},
			{ServoClaw, ClawClosed, ms(600)},
			{ServoShoulder, 150, ms(400)},
			{ServoElbow, 120, ms(300)},
		},
		// Reaches a little further and closes slower, for balls that
		// rolled off the first attempt.
		GrabAlternate: {
			{ServoClaw, ClawOpen, ms(200)},
			{ServoElbow, 215, ms(300)},
			{ServoShoulder, 240, ms(600)},
			{ServoClaw, 150, ms(300)},
			{ServoClaw, ClawClosed, ms(600)},
			{ServoShoulder, 150, ms(400)},
			{ServoElbow, 120, ms(300)},
		},
		Release: {
			{ServoShoulder, 190, ms(400)},
			{ServoClaw, ClawOpen, ms(500)},
			{ServoShoulder, 150, ms(300)},
		},
		Carry: {
			{ServoShoulder, 150, ms(300)},
			{ServoElbow, 120, ms(300)},
		},
		Stow: {
			{ServoClaw, ClawClosed, ms(300)},
			{ServoElbow, 60, ms(300)},
			{ServoShoulder, 100, ms(400)},
			{ServoBase, 180, ms(200)},
		},
	}
}
