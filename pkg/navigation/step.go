package navigation

import (
	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
)

// RunState is everything the control loop remembers between ticks.  Only the
// control loop touches it.
type RunState struct {
	State   State
	Counter int

	LastDirection Direction
	// LastTurn is the way we last turned towards something, and so the way
	// to scan when it disappears.
	LastTurn Direction

	SeenLastTick   bool
	NudgeRemaining int

	// Set after a failed grab so the next attempt uses the other gesture.
	AlternateGrab bool
}

func NewRunState() RunState {
	return RunState{
		State:    ChaseTarget,
		LastTurn: Left,
	}
}

func (st *RunState) transition(to State) {
	st.State = to
	st.Counter = 0
}

// Decision is the outcome of one tick.
type Decision struct {
	Intent    drive.Intent
	Direction Direction
	Box       BoundingBox
	Idle      bool
	// Gesture is set when the debounced stop has fired.  The caller must
	// run it and then call Finish.
	Gesture string
}

// Step runs the state machine for one frame's detections.  It does no I/O.
func Step(cfg Config, st *RunState, boxes []BoundingBox) Decision {
	box, ok := Largest(boxes)
	if !ok {
		return idle(cfg, st)
	}
	st.SeenLastTick = true
	st.NudgeRemaining = 0

	if st.State == GrabTarget {
		// Only seen if a grab was never finished; hold still.
		return Decision{Intent: drive.NewIntent(drive.Brake, 0), Direction: Stop, Box: box}
	}

	dir, speed := Direction(0), 0
	for {
		dir, speed = decide(&cfg, st.State, box)
		before := st.State
		switch st.State {
		case ChaseTarget:
			if dir == Stop {
				st.transition(PositionTarget)
			}
		case PositionTarget:
			if box.W < cfg.WFar || box.W > cfg.WNear {
				st.transition(ChaseTarget)
			}
		case ChaseContainer:
			if dir == Stop {
				st.transition(ReleaseTarget)
			}
		case ReleaseTarget:
			if box.W < cfg.fillWidth() {
				st.transition(ChaseContainer)
			}
		}
		if st.State == before {
			break
		}
	}

	if dir != st.LastDirection {
		st.Counter = 0
		st.LastDirection = dir
	}
	if dir == Left || dir == Right {
		st.LastTurn = dir
	}

	d := Decision{Direction: dir, Box: box}
	if dir != Stop {
		d.Intent = drive.NewIntent(intentKind(dir), speed)
		return d
	}

	d.Intent = drive.NewIntent(drive.Brake, 0)
	st.Counter++
	if st.Counter < cfg.DebounceThreshold {
		return d
	}
	switch st.State {
	case PositionTarget:
		st.transition(GrabTarget)
		d.Gesture = gripper.Grab
		if st.AlternateGrab {
			d.Gesture = gripper.GrabAlternate
		}
	case ReleaseTarget:
		st.Counter = 0
		d.Gesture = gripper.Release
	}
	return d
}

// Finish records the result of the gesture a Decision asked for.
func Finish(st *RunState, ok bool) {
	switch st.State {
	case GrabTarget:
		if ok {
			st.transition(ChaseContainer)
			st.AlternateGrab = false
		} else {
			st.transition(ChaseTarget)
			st.AlternateGrab = !st.AlternateGrab
		}
	case ReleaseTarget:
		st.transition(ChaseTarget)
	default:
		st.Counter = 0
	}
	st.LastDirection = None
	st.SeenLastTick = false
}

// GrabSucceeded decides a grab from the verification read.  A failed read
// counts as a miss.
func GrabSucceeded(cfg Config, position int, err error) bool {
	return err == nil && position >= cfg.GrabVerify.MinPosition
}

func idle(cfg Config, st *RunState) Decision {
	st.Counter = 0
	st.LastDirection = None
	if st.SeenLastTick && st.State.chasingTarget() {
		st.NudgeRemaining = cfg.NudgeTicks
	}
	st.SeenLastTick = false

	d := Decision{Idle: true, Direction: None}
	if st.NudgeRemaining > 0 {
		st.NudgeRemaining--
		d.Intent = drive.NewIntent(drive.Backward, cfg.NudgeSpeed)
		return d
	}
	kind := drive.TurnLeft
	if st.LastTurn == Right {
		kind = drive.TurnRight
	}
	d.Intent = drive.NewIntent(kind, cfg.ScanSpeed)
	return d
}

// decide works out which way to move for box in state.
func decide(cfg *Config, state State, box BoundingBox) (Direction, int) {
	window := cfg.TargetWindow
	turnSpeed := cfg.TargetTurnSpeed
	if state.WantsContainer() {
		window = cfg.ContainerWindow
		turnSpeed = cfg.ContainerTurnSpeed
	}
	lo, hi := window.Bounds(cfg.FrameWidth)
	center := box.CenterX()
	switch {
	case center < lo:
		return Left, turnSpeed
	case center > hi:
		return Right, turnSpeed
	}

	if state.WantsContainer() {
		if box.W < cfg.fillWidth() {
			return Forward, cfg.ContainerSpeed
		}
		return Stop, 0
	}
	switch {
	case box.W > cfg.WNear:
		return Backward, cfg.BackwardSpeed
	case box.W < cfg.WFar:
		return Forward, tierSpeed(cfg.TargetTiers, box.W)
	}
	return Stop, 0
}

func tierSpeed(tiers []SpeedTier, width int) int {
	for _, t := range tiers {
		if width < t.MaxWidth {
			return t.Speed
		}
	}
	return tiers[len(tiers)-1].Speed
}

func intentKind(d Direction) drive.Kind {
	switch d {
	case Left:
		return drive.TurnLeft
	case Right:
		return drive.TurnRight
	case Forward:
		return drive.Forward
	case Backward:
		return drive.Backward
	}
	return drive.Brake
}
