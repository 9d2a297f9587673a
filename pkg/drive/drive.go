package drive

import (
	"fmt"
	"math"
)

type Kind int

const (
	Coast Kind = iota
	Forward
	Backward
	TurnLeft
	TurnRight
	PivotLeft
	PivotRight
	Brake
)

func (k Kind) String() string {
	switch k {
	case Coast:
		return "coast"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case TurnLeft:
		return "turn-left"
	case TurnRight:
		return "turn-right"
	case PivotLeft:
		return "pivot-left"
	case PivotRight:
		return "pivot-right"
	case Brake:
		return "brake"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Intent is a motion request.  Build it with NewIntent so Speed is always in
// range.
type Intent struct {
	Kind  Kind
	Speed int
}

func NewIntent(kind Kind, speed int) Intent {
	return Intent{Kind: kind, Speed: Clamp(speed)}
}

func (i Intent) String() string {
	if i.Kind == Brake || i.Kind == Coast {
		return i.Kind.String()
	}
	return fmt.Sprintf("%v@%d", i.Kind, i.Speed)
}

const DefaultArcRatio = 0.8

// Controller is an open-loop differential drive.
type Controller struct {
	Left, Right *Motor

	// ArcRatio scales the inner wheel on pivots.
	ArcRatio float64
}

func New(left, right *Motor, arcRatio float64) *Controller {
	if arcRatio <= 0 || arcRatio > 1 {
		arcRatio = DefaultArcRatio
	}
	return &Controller{
		Left:     left,
		Right:    right,
		ArcRatio: arcRatio,
	}
}

func (c *Controller) SetSpeeds(left, right int) error {
	if err := c.Left.SetSpeed(left); err != nil {
		return err
	}
	return c.Right.SetSpeed(right)
}

func (c *Controller) Forward(speed int) error {
	return c.SetSpeeds(speed, speed)
}

func (c *Controller) Backward(speed int) error {
	return c.SetSpeeds(-speed, -speed)
}

// TurnLeft spins in place.  The rig's motors are mounted so that this
// wiring turns it left.
func (c *Controller) TurnLeft(speed int) error {
	return c.SetSpeeds(speed, -speed)
}

func (c *Controller) TurnRight(speed int) error {
	return c.SetSpeeds(-speed, speed)
}

// PivotLeft is a gentle arc with the right wheel slowed by ArcRatio.
func (c *Controller) PivotLeft(speed int) error {
	return c.SetSpeeds(speed, c.scaled(speed))
}

func (c *Controller) PivotRight(speed int) error {
	return c.SetSpeeds(c.scaled(speed), speed)
}

func (c *Controller) scaled(speed int) int {
	return int(math.Round(float64(speed) * c.ArcRatio))
}

func (c *Controller) Brake() error {
	if err := c.Left.Brake(); err != nil {
		return err
	}
	return c.Right.Brake()
}

func (c *Controller) Coast() error {
	if err := c.Left.Coast(); err != nil {
		return err
	}
	return c.Right.Coast()
}

// Apply carries out an intent.
func (c *Controller) Apply(intent Intent) error {
	speed := Clamp(intent.Speed)
	switch intent.Kind {
	case Forward:
		return c.Forward(speed)
	case Backward:
		return c.Backward(speed)
	case TurnLeft:
		return c.TurnLeft(speed)
	case TurnRight:
		return c.TurnRight(speed)
	case PivotLeft:
		return c.PivotLeft(speed)
	case PivotRight:
		return c.PivotRight(speed)
	case Brake:
		return c.Brake()
	case Coast:
		return c.Coast()
	}
	return fmt.Errorf("unknown motion %v", intent.Kind)
}
