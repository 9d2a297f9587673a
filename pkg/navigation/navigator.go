package navigation

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

type Log func(string, ...any)

func defaultLog(f string, args ...any) {
	fmt.Println("Navigation: " + fmt.Sprintf(f, args...))
}

type Drive interface {
	Apply(intent drive.Intent) error
}

type Gripper interface {
	Run(name string) error
	Position(id servobus.ServoID) (int, error)
}

// Navigator owns the run state and the actuators it drives.  Tick must only
// be called from the control loop goroutine.
type Navigator struct {
	cfg     Config
	st      RunState
	drive   Drive
	gripper Gripper
	log     Log

	reported State

	// OnStateChange is called after every state change, including the
	// short-lived gesture states.
	OnStateChange func(from, to State)

	// Sleep is swapped out in tests.
	Sleep func(time.Duration)
}

func New(cfg Config, d Drive, g Gripper, log Log) *Navigator {
	if log == nil {
		log = defaultLog
	}
	st := NewRunState()
	return &Navigator{
		cfg:      cfg,
		st:       st,
		drive:    d,
		gripper:  g,
		log:      log,
		reported: st.State,
		Sleep:    time.Sleep,
	}
}

func (n *Navigator) State() State {
	return n.st.State
}

// RunState returns a copy of the current run state.
func (n *Navigator) RunState() RunState {
	return n.st
}

// WantsContainer tells the perception side which detector to run next.
func (n *Navigator) WantsContainer() bool {
	return n.st.State.WantsContainer()
}

// Tick handles one frame's worth of detections from a frame frameWidth pixels
// wide (zero for the configured width).  Actuator errors are logged and the
// first is returned; the state machine carries on regardless.
func (n *Navigator) Tick(boxes []BoundingBox, frameWidth int) error {
	d := Step(n.cfg.ForFrame(frameWidth), &n.st, boxes)
	if d.Idle {
		n.log("%v: nothing seen, %v", n.st.State, d.Intent)
	} else {
		n.log("%v: box %v -> %v (%v), count %d", n.st.State, d.Box, d.Direction, d.Intent, n.st.Counter)
	}

	var firstErr error
	note := func(err error) {
		if err == nil {
			return
		}
		n.log("%v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	note(n.drive.Apply(d.Intent))
	n.reportState()
	if d.Gesture == "" {
		return firstErr
	}

	switch d.Gesture {
	case gripper.Release:
		note(n.release())
		Finish(&n.st, true)
	default:
		ok, err := n.grab(d.Gesture)
		note(err)
		Finish(&n.st, ok)
	}
	n.reportState()
	return firstErr
}

func (n *Navigator) grab(gesture string) (bool, error) {
	n.log("Grabbing with %s", gesture)
	if err := n.gripper.Run(gesture); err != nil {
		return false, fmt.Errorf("grab gesture failed: %w", err)
	}
	n.Sleep(n.cfg.SettleAfterGrab)
	pos, err := n.gripper.Position(n.cfg.GrabVerify.Servo)
	ok := GrabSucceeded(n.cfg, pos, err)
	if err != nil {
		n.log("Grab verification read failed, treating as a miss: %v", err)
		return false, nil
	}
	n.log("Servo %d at %d (need %d): grabbed=%v", n.cfg.GrabVerify.Servo, pos, n.cfg.GrabVerify.MinPosition, ok)
	return ok, nil
}

// release drops the ball and backs away from the container.
func (n *Navigator) release() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	n.log("Releasing")
	keep(n.gripper.Run(gripper.Release))
	n.Sleep(n.cfg.Release.SettleDelay)
	keep(n.drive.Apply(drive.NewIntent(drive.Backward, n.cfg.Release.BackoffSpeed)))
	n.Sleep(n.cfg.Release.BackoffDuration)
	keep(n.drive.Apply(drive.NewIntent(drive.Coast, 0)))
	return firstErr
}

func (n *Navigator) reportState() {
	if n.st.State == n.reported {
		return
	}
	from := n.reported
	n.reported = n.st.State
	n.log("State %v -> %v", from, n.st.State)
	if n.OnStateChange != nil {
		n.OnStateChange(from, n.st.State)
	}
}
