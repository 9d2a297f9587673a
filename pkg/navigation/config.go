package navigation

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

// Window is a horizontal band of the frame.  A zero Center means the middle
// of the frame.
type Window struct {
	Center int
	Width  int
}

// Bounds returns the inclusive pixel range of the window, kept inside the
// frame.
func (w Window) Bounds(frameWidth int) (lo, hi int) {
	c := w.Center
	if c == 0 {
		c = frameWidth / 2
	}
	lo = c - w.Width/2
	hi = c + w.Width/2
	if lo < 0 {
		lo = 0
	}
	if hi > frameWidth {
		hi = frameWidth
	}
	return
}

// SpeedTier applies to boxes narrower than MaxWidth.
type SpeedTier struct {
	MaxWidth int
	Speed    int
}

type GrabVerify struct {
	Servo       servobus.ServoID
	MinPosition int
}

type Release struct {
	SettleDelay     time.Duration
	BackoffSpeed    int
	BackoffDuration time.Duration
}

// Config is the tuning for one rig.  It doesn't change while running.
type Config struct {
	// FrameWidth is the expected camera width.  Navigator.Tick replaces it
	// with the width of each frame it is given.
	FrameWidth int

	TargetWindow    Window
	ContainerWindow Window

	// Ball widths (pixels) bounding the grab position: narrower than WFar
	// is too far away, wider than WNear too close.
	WFar  int
	WNear int

	// Forward speeds towards the ball, by ascending MaxWidth.
	TargetTiers     []SpeedTier
	BackwardSpeed   int
	TargetTurnSpeed int

	ContainerSpeed     int
	ContainerTurnSpeed int
	// Container width at which it fills the view.  Zero means FrameWidth.
	ContainerFillWidth int

	ScanSpeed  int
	NudgeSpeed int
	NudgeTicks int

	DebounceThreshold int

	GrabVerify      GrabVerify
	SettleAfterGrab time.Duration
	Release         Release
}

func DefaultConfig() Config {
	return Config{
		FrameWidth:      640,
		TargetWindow:    Window{Center: 440, Width: 120},
		ContainerWindow: Window{Center: 0, Width: 120},
		WFar:            328,
		WNear:           365,
		TargetTiers: []SpeedTier{
			{MaxWidth: 270, Speed: 120},
			{MaxWidth: 328, Speed: 30},
		},
		BackwardSpeed:      30,
		TargetTurnSpeed:    40,
		ContainerSpeed:     240,
		ContainerTurnSpeed: 60,
		ScanSpeed:          60,
		NudgeSpeed:         30,
		NudgeTicks:         3,
		DebounceThreshold:  10,
		GrabVerify: GrabVerify{
			Servo:       4,
			MinPosition: 1250,
		},
		SettleAfterGrab: 2 * time.Second,
		Release: Release{
			SettleDelay:     1 * time.Second,
			BackoffSpeed:    120,
			BackoffDuration: 2 * time.Second,
		},
	}
}

// ForFrame returns the config for a frame width pixels wide.  Windows
// centred on the frame and the default fill width follow the frame; a
// non-positive width leaves FrameWidth alone.
func (c Config) ForFrame(width int) Config {
	if width > 0 {
		c.FrameWidth = width
	}
	return c
}

func (c *Config) fillWidth() int {
	if c.ContainerFillWidth > 0 {
		return c.ContainerFillWidth
	}
	return c.FrameWidth
}

func (c *Config) Validate() error {
	if c.FrameWidth <= 0 {
		return fmt.Errorf("frame width must be positive, not %d", c.FrameWidth)
	}
	for name, w := range map[string]Window{"target": c.TargetWindow, "container": c.ContainerWindow} {
		if w.Width <= 0 || w.Width > c.FrameWidth {
			return fmt.Errorf("%s window width %d not in (0, %d]", name, w.Width, c.FrameWidth)
		}
		if w.Center < 0 || w.Center > c.FrameWidth {
			return fmt.Errorf("%s window centre %d outside the frame", name, w.Center)
		}
	}
	if c.WFar <= 0 || c.WFar > c.WNear {
		return fmt.Errorf("need 0 < WFar (%d) <= WNear (%d)", c.WFar, c.WNear)
	}
	if len(c.TargetTiers) == 0 {
		return fmt.Errorf("no target speed tiers")
	}
	last := 0
	for i, t := range c.TargetTiers {
		if t.MaxWidth <= last {
			return fmt.Errorf("speed tier %d: widths must be ascending", i)
		}
		last = t.MaxWidth
		if err := checkSpeed(fmt.Sprintf("speed tier %d", i), t.Speed); err != nil {
			return err
		}
	}
	for name, s := range map[string]int{
		"backward speed":       c.BackwardSpeed,
		"target turn speed":    c.TargetTurnSpeed,
		"container speed":      c.ContainerSpeed,
		"container turn speed": c.ContainerTurnSpeed,
		"scan speed":           c.ScanSpeed,
		"nudge speed":          c.NudgeSpeed,
		"back-off speed":       c.Release.BackoffSpeed,
	} {
		if err := checkSpeed(name, s); err != nil {
			return err
		}
	}
	if c.NudgeTicks < 0 {
		return fmt.Errorf("nudge ticks must not be negative")
	}
	if c.DebounceThreshold < 1 {
		return fmt.Errorf("debounce threshold must be at least 1, not %d", c.DebounceThreshold)
	}
	if c.GrabVerify.MinPosition < 0 || c.GrabVerify.MinPosition > servobus.MaxPosition {
		return fmt.Errorf("grab verify position %d out of range", c.GrabVerify.MinPosition)
	}
	if c.SettleAfterGrab < 0 || c.Release.SettleDelay < 0 || c.Release.BackoffDuration < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func checkSpeed(name string, s int) error {
	if s < 0 || s > 255 {
		return fmt.Errorf("%s %d not in [0, 255]", name, s)
	}
	return nil
}
