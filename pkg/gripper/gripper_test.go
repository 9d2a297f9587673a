package gripper

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

type recordingBus struct {
	calls   []string
	failOn  int
	pos     int
	readErr error
}

func (b *recordingBus) record(s string) error {
	b.calls = append(b.calls, s)
	if b.failOn > 0 && len(b.calls) == b.failOn {
		return servobus.ErrWriteFailure
	}
	return nil
}

func (b *recordingBus) MoveToAngle(id servobus.ServoID, angle float64) error {
	return b.record(fmt.Sprintf("move %d %.0f", id, angle))
}

func (b *recordingBus) SetSpeed(id servobus.ServoID, speed int) error {
	return b.record(fmt.Sprintf("speed %d %d", id, speed))
}

func (b *recordingBus) SetTorque(id servobus.ServoID, enabled bool) error {
	return b.record(fmt.Sprintf("torque %d %v", id, enabled))
}

func (b *recordingBus) PresentPosition(id servobus.ServoID) (int, error) {
	return b.pos, b.readErr
}

func newTestGripper(bus *recordingBus, overrides map[string]Gesture) (*Gripper, *[]time.Duration) {
	g := New(bus, 0, overrides)
	var slept []time.Duration
	g.Sleep = func(d time.Duration) { slept = append(slept, d) }
	return g, &slept
}

func TestRunPlaysStepsInOrder(t *testing.T) {
	bus := &recordingBus{}
	g, slept := newTestGripper(bus, map[string]Gesture{
		"wave": {
			{Servo: 1, Angle: 10, Hold: time.Second},
			{Servo: 2, Angle: 20, Hold: 2 * time.Second},
		},
	})

	require.NoError(t, g.Run("wave"))
	assert.Equal(t, []string{"move 1 10", "move 2 20"}, bus.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRunStopsOnWriteFailure(t *testing.T) {
	bus := &recordingBus{failOn: 2}
	g, _ := newTestGripper(bus, nil)

	err := g.Run(Grab)
	require.ErrorIs(t, err, servobus.ErrWriteFailure)
	assert.Len(t, bus.calls, 2)
}

func TestUnknownGesture(t *testing.T) {
	g, _ := newTestGripper(&recordingBus{}, nil)
	assert.Error(t, g.Run("juggle"))
}

func TestInit(t *testing.T) {
	bus := &recordingBus{}
	g, _ := newTestGripper(bus, nil)

	require.NoError(t, g.Init())
	assert.Equal(t, []string{
		"speed 1 100", "torque 1 true",
		"speed 2 100", "torque 2 true",
		"speed 3 100", "torque 3 true",
		"speed 4 100", "torque 4 true",
	}, bus.calls[:8])
	assert.Len(t, bus.calls, 8+len(DefaultGestures()[Home]))
}

func TestDefaultTables(t *testing.T) {
	g, _ := newTestGripper(&recordingBus{}, nil)
	assert.Equal(t, []string{Carry, Grab, GrabAlternate, Home, Release, Stow}, g.Names())
	for name, gesture := range DefaultGestures() {
		assert.NotEmpty(t, gesture, name)
		for _, s := range gesture {
			assert.True(t, s.Angle >= 0 && s.Angle <= 360, "%s angle %v", name, s.Angle)
		}
	}
}

func TestOverrideReplacesTable(t *testing.T) {
	bus := &recordingBus{}
	g, _ := newTestGripper(bus, map[string]Gesture{
		Release: {{Servo: ServoClaw, Angle: 180}},
	})
	require.NoError(t, g.Run(Release))
	assert.Equal(t, []string{"move 4 180"}, bus.calls)
}

func TestPosition(t *testing.T) {
	g, _ := newTestGripper(&recordingBus{pos: 1500}, nil)
	pos, err := g.Position(ServoClaw)
	require.NoError(t, err)
	assert.Equal(t, 1500, pos)

	g, _ = newTestGripper(&recordingBus{readErr: errors.New("boom")}, nil)
	_, err = g.Position(ServoClaw)
	assert.Error(t, err)
}
