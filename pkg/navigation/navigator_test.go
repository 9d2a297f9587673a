package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

type fakeDrive struct {
	intents []drive.Intent
}

func (f *fakeDrive) Apply(i drive.Intent) error {
	f.intents = append(f.intents, i)
	return nil
}

type fakeGripper struct {
	runs    []string
	pos     int
	readErr error
}

func (f *fakeGripper) Run(name string) error {
	f.runs = append(f.runs, name)
	return nil
}

func (f *fakeGripper) Position(id servobus.ServoID) (int, error) {
	return f.pos, f.readErr
}

func quietLog(string, ...any) {}

func newTestNavigator(cfg Config, g Gripper) (*Navigator, *fakeDrive, *[]time.Duration) {
	d := &fakeDrive{}
	n := New(cfg, d, g, quietLog)
	var slept []time.Duration
	n.Sleep = func(t time.Duration) { slept = append(slept, t) }
	return n, d, &slept
}

func TestSustainedStopGrabsOnce(t *testing.T) {
	cfg := DefaultConfig()
	g := &fakeGripper{pos: 1500}
	n, _, _ := newTestNavigator(cfg, g)
	var changes []string
	n.OnStateChange = func(from, to State) {
		changes = append(changes, from.String()+">"+to.String())
	}

	box := []BoundingBox{centredBox(346)}
	for i := 0; i < 3*cfg.DebounceThreshold; i++ {
		require.NoError(t, n.Tick(box, 0))
	}

	assert.Equal(t, []string{gripper.Grab}, g.runs)
	assert.Equal(t, ChaseContainer, n.State())
	assert.True(t, n.WantsContainer())
	assert.Equal(t, []string{
		"ChaseTarget>PositionTarget",
		"PositionTarget>GrabTarget",
		"GrabTarget>ChaseContainer",
	}, changes)
}

func TestLowPositionIsAMiss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceThreshold = 2
	g := &fakeGripper{pos: cfg.GrabVerify.MinPosition - 1}
	n, _, slept := newTestNavigator(cfg, g)

	box := []BoundingBox{centredBox(346)}
	n.Tick(box, 0)
	n.Tick(box, 0)

	assert.Equal(t, ChaseTarget, n.State())
	assert.Equal(t, []time.Duration{cfg.SettleAfterGrab}, *slept)

	// Next attempt uses the other gesture.
	n.Tick(box, 0)
	n.Tick(box, 0)
	assert.Equal(t, []string{gripper.Grab, gripper.GrabAlternate}, g.runs)
}

// silentPort never answers.
type silentPort struct{}

func (silentPort) Read(p []byte) (int, error)         { return 0, nil }
func (silentPort) Write(p []byte) (int, error)        { return len(p), nil }
func (silentPort) Close() error                       { return nil }
func (silentPort) Drain() error                       { return nil }
func (silentPort) ResetInputBuffer() error            { return nil }
func (silentPort) SetReadTimeout(time.Duration) error { return nil }

func TestVerificationTimeoutIsAMiss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceThreshold = 1
	bus := servobus.New(silentPort{})
	g := gripper.New(bus, 0, nil)
	g.Sleep = func(time.Duration) {}
	n, _, _ := newTestNavigator(cfg, g)

	_, err := bus.PresentPosition(cfg.GrabVerify.Servo)
	require.ErrorIs(t, err, servobus.ErrTimeout)

	require.NoError(t, n.Tick([]BoundingBox{centredBox(346)}, 0))
	assert.Equal(t, ChaseTarget, n.State())
	assert.True(t, n.RunState().AlternateGrab)
}

func TestReleaseBacksOff(t *testing.T) {
	cfg := DefaultConfig()
	g := &fakeGripper{}
	n, d, slept := newTestNavigator(cfg, g)
	n.st.State = ChaseContainer
	n.reported = ChaseContainer

	full := []BoundingBox{{X: 0, W: 640, H: 480}}
	for i := 0; i < cfg.DebounceThreshold; i++ {
		require.NoError(t, n.Tick(full, 0))
	}

	assert.Equal(t, []string{gripper.Release}, g.runs)
	assert.Equal(t, ChaseTarget, n.State())
	assert.False(t, n.WantsContainer())

	last := d.intents[len(d.intents)-3:]
	assert.Equal(t, []drive.Intent{
		drive.NewIntent(drive.Brake, 0),
		drive.NewIntent(drive.Backward, cfg.Release.BackoffSpeed),
		drive.NewIntent(drive.Coast, 0),
	}, last)
	assert.Equal(t, []time.Duration{cfg.Release.SettleDelay, cfg.Release.BackoffDuration}, *slept)
}

func TestIdleTickLeavesStateAlone(t *testing.T) {
	n, d, _ := newTestNavigator(DefaultConfig(), &fakeGripper{})
	n.Tick([]BoundingBox{centredBox(346)}, 0)
	require.Equal(t, PositionTarget, n.State())

	require.NoError(t, n.Tick(nil, 0))
	assert.Equal(t, PositionTarget, n.State())
	assert.Zero(t, n.RunState().Counter)
	assert.Equal(t, drive.NewIntent(drive.Backward, 30), d.intents[len(d.intents)-1])
}

func TestTickUsesTheFrameWidth(t *testing.T) {
	n, d, _ := newTestNavigator(DefaultConfig(), &fakeGripper{})
	n.st.State = ChaseContainer

	// Centred in a 1280 pixel frame, right of centre in a 640 one.
	box := []BoundingBox{{X: 490, W: 300}}
	require.NoError(t, n.Tick(box, 1280))
	require.NoError(t, n.Tick(box, 0))

	assert.Equal(t, []drive.Intent{
		drive.NewIntent(drive.Forward, 240),
		drive.NewIntent(drive.TurnRight, 60),
	}, d.intents)
	assert.Equal(t, ChaseContainer, n.State())
}
