package huntmode

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

type fakeFrames struct {
	remaining int
	closed    bool
}

func (f *fakeFrames) Start(ctx context.Context) {}

func (f *fakeFrames) Next(ctx context.Context) (gocv.Mat, error) {
	if f.remaining == 0 {
		return gocv.Mat{}, errors.New("no more frames")
	}
	f.remaining--
	return gocv.NewMat(), nil
}

func (f *fakeFrames) Close() error {
	f.closed = true
	return nil
}

type fakeDetector struct {
	name  string
	boxes []navigation.BoundingBox
	err   error
	calls int
}

func (d *fakeDetector) Name() string { return d.name }

func (d *fakeDetector) Detect(frame gocv.Mat) ([]navigation.BoundingBox, error) {
	d.calls++
	return d.boxes, d.err
}

func (d *fakeDetector) Close() error { return nil }

type fakeDrive struct {
	lock    sync.Mutex
	intents []drive.Intent
}

func (d *fakeDrive) Apply(i drive.Intent) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.intents = append(d.intents, i)
	return nil
}

type fakeGripper struct{}

func (fakeGripper) Run(name string) error                     { return nil }
func (fakeGripper) Position(id servobus.ServoID) (int, error) { return 0, nil }

func quiet(string, ...any) {}

func runHunt(t *testing.T, frames *fakeFrames, target, container *fakeDetector) (*HuntMode, *fakeDrive) {
	d := &fakeDrive{}
	nav := navigation.New(navigation.DefaultConfig(), d, fakeGripper{}, quiet)
	m := New(nav, d, target, container, func() (Frames, error) { return frames, nil })
	m.Start(context.Background())
	m.Wait()
	return m, d
}

func TestHuntRunsTargetDetectorPerFrame(t *testing.T) {
	frames := &fakeFrames{remaining: 3}
	target := &fakeDetector{name: "target", boxes: []navigation.BoundingBox{{X: 400, Y: 100, W: 100, H: 100}}}
	container := &fakeDetector{name: "container"}

	m, d := runHunt(t, frames, target, container)

	assert.Equal(t, 3, m.Ticks())
	assert.Equal(t, 3, target.calls)
	assert.Equal(t, 0, container.calls)
	assert.True(t, frames.closed)

	require.Len(t, d.intents, 4)
	for _, i := range d.intents[:3] {
		assert.Equal(t, drive.NewIntent(drive.Forward, 120), i)
	}
	assert.Equal(t, drive.NewIntent(drive.Coast, 0), d.intents[3], "motors should be stopped on exit")
}

func TestHuntDetectorErrorIsAnEmptyFrame(t *testing.T) {
	frames := &fakeFrames{remaining: 1}
	target := &fakeDetector{name: "target", err: errors.New("boom")}

	m, d := runHunt(t, frames, target, &fakeDetector{name: "container"})

	assert.Equal(t, 1, m.Ticks())
	require.Len(t, d.intents, 2)
	// Nothing seen and no previous sighting: scan.
	assert.Equal(t, drive.NewIntent(drive.TurnLeft, 60), d.intents[0])
	assert.Equal(t, navigation.ChaseTarget, m.Navigator.State())
}

func TestHuntCameraFailure(t *testing.T) {
	d := &fakeDrive{}
	nav := navigation.New(navigation.DefaultConfig(), d, fakeGripper{}, quiet)
	m := New(nav, d, &fakeDetector{}, &fakeDetector{}, func() (Frames, error) {
		return nil, errors.New("no camera")
	})
	m.Start(context.Background())
	m.Stop()

	assert.Equal(t, 0, m.Ticks())
	assert.Equal(t, []drive.Intent{drive.NewIntent(drive.Coast, 0)}, d.intents)
}
