package gripper

import (
	"fmt"
	"sort"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

// Bus is what the gripper needs from the servo bus.
type Bus interface {
	MoveToAngle(id servobus.ServoID, angle float64) error
	SetSpeed(id servobus.ServoID, speed int) error
	SetTorque(id servobus.ServoID, enabled bool) error
	PresentPosition(id servobus.ServoID) (int, error)
}

type Interface interface {
	Run(name string) error
	Position(id servobus.ServoID) (int, error)
}

const DefaultServoSpeed = 100

type Gripper struct {
	bus      Bus
	gestures map[string]Gesture
	servos   []servobus.ServoID
	speed    int

	// Sleep is swapped out in tests.
	Sleep func(time.Duration)
}

// New builds a gripper with the default gestures, overridden by any tables in
// overrides.
func New(bus Bus, speed int, overrides map[string]Gesture) *Gripper {
	if speed <= 0 {
		speed = DefaultServoSpeed
	}
	gestures := DefaultGestures()
	for name, g := range overrides {
		gestures[name] = g
	}
	return &Gripper{
		bus:      bus,
		gestures: gestures,
		servos:   servosUsed(gestures),
		speed:    speed,
		Sleep:    time.Sleep,
	}
}

func servosUsed(gestures map[string]Gesture) []servobus.ServoID {
	seen := map[servobus.ServoID]bool{}
	var ids []servobus.ServoID
	for _, g := range gestures {
		for _, s := range g {
			if !seen[s.Servo] {
				seen[s.Servo] = true
				ids = append(ids, s.Servo)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Init sets the speed and enables torque on every servo the gestures use,
// then moves to the home pose.
func (g *Gripper) Init() error {
	for _, id := range g.servos {
		if err := g.bus.SetSpeed(id, g.speed); err != nil {
			return err
		}
		if err := g.bus.SetTorque(id, true); err != nil {
			return err
		}
	}
	return g.Run(Home)
}

func (g *Gripper) Has(name string) bool {
	_, ok := g.gestures[name]
	return ok
}

func (g *Gripper) Names() []string {
	var names []string
	for n := range g.gestures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run plays a gesture to the end.  It can't be interrupted; a write failure
// stops it where it is and is returned.
func (g *Gripper) Run(name string) error {
	gesture, ok := g.gestures[name]
	if !ok {
		return fmt.Errorf("unknown gesture %q", name)
	}
	fmt.Printf("Gripper: %s (%d steps)\n", name, len(gesture))
	for i, step := range gesture {
		if err := g.bus.MoveToAngle(step.Servo, step.Angle); err != nil {
			return fmt.Errorf("gesture %s step %d: %w", name, i, err)
		}
		g.Sleep(step.Hold)
	}
	return nil
}

// Position reads where a servo is now, in raw steps.
func (g *Gripper) Position(id servobus.ServoID) (int, error) {
	return g.bus.PresentPosition(id)
}
