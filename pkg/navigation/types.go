package navigation

import "fmt"

type State int

const (
	ChaseTarget State = iota
	PositionTarget
	GrabTarget
	ChaseContainer
	ReleaseTarget
)

func (s State) String() string {
	switch s {
	case ChaseTarget:
		return "ChaseTarget"
	case PositionTarget:
		return "PositionTarget"
	case GrabTarget:
		return "GrabTarget"
	case ChaseContainer:
		return "ChaseContainer"
	case ReleaseTarget:
		return "ReleaseTarget"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// WantsContainer is true in the states where the robot is carrying the ball
// and looking for the container.
func (s State) WantsContainer() bool {
	return s == ChaseContainer || s == ReleaseTarget
}

func (s State) chasingTarget() bool {
	return s == ChaseTarget || s == PositionTarget
}

// BoundingBox is a detection in frame pixels, origin top left.
type BoundingBox struct {
	X, Y, W, H int
}

func (b BoundingBox) CenterX() int {
	return b.X + b.W/2
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("{x=%d y=%d w=%d h=%d}", b.X, b.Y, b.W, b.H)
}

// Largest returns the widest box.  Ties go to the first one.
func Largest(boxes []BoundingBox) (BoundingBox, bool) {
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}
	best := boxes[0]
	for _, b := range boxes[1:] {
		if b.W > best.W {
			best = b
		}
	}
	return best, true
}

type Direction int

const (
	None Direction = iota
	Stop
	Left
	Right
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case Stop:
		return "stop"
	case Left:
		return "left"
	case Right:
		return "right"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}
