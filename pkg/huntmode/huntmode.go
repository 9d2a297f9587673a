package huntmode

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
	"github.com/tigerbot-team/tennisbot/pkg/screen"
	"github.com/tigerbot-team/tennisbot/pkg/vision"
)

// Frames is a frame source.  vision.Camera is the real one.
type Frames interface {
	Start(ctx context.Context)
	Next(ctx context.Context) (gocv.Mat, error)
	Close() error
}

// HuntMode runs the fetch loop: one frame, one detection, one navigation
// tick.
type HuntMode struct {
	Navigator *navigation.Navigator
	Drive     navigation.Drive
	Target    vision.Detector
	Container vision.Detector

	// PictureDir, if set, is where annotated frames are saved when
	// SavePicture is called.
	PictureDir string

	openFrames func() (Frames, error)

	cancel context.CancelFunc
	stopWG sync.WaitGroup

	savePicture  int32
	pictureIndex int
	ticks        int
}

func New(
	nav *navigation.Navigator,
	d navigation.Drive,
	target, container vision.Detector,
	openFrames func() (Frames, error),
) *HuntMode {
	return &HuntMode{
		Navigator:  nav,
		Drive:      d,
		Target:     target,
		Container:  container,
		openFrames: openFrames,
	}
}

func (m *HuntMode) Name() string {
	return "Hunt mode"
}

func (m *HuntMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *HuntMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

// Wait blocks until the loop exits, either because it was stopped or
// because the camera failed.
func (m *HuntMode) Wait() {
	m.stopWG.Wait()
}

// SavePicture asks the loop to save the next frame with its detections
// drawn on.
func (m *HuntMode) SavePicture() {
	atomic.StoreInt32(&m.savePicture, 1)
}

// Ticks returns how many frames the loop has handled.  Only safe after the
// loop has exited.
func (m *HuntMode) Ticks() int {
	return m.ticks
}

func (m *HuntMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer m.stopMotors()
	defer fmt.Println("Hunt mode: exiting loop")

	frames, err := m.openFrames()
	if err != nil {
		fmt.Println("Hunt mode: failed to open camera:", err)
		return
	}
	// The capture goroutine gets its own context so that it is always
	// stopped before Close waits for it.
	camCtx, camCancel := context.WithCancel(ctx)
	defer func() {
		camCancel()
		if err := frames.Close(); err != nil {
			fmt.Println("Hunt mode: failed to close camera:", err)
		}
	}()
	frames.Start(camCtx)

	for ctx.Err() == nil {
		frame, err := frames.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Println("Hunt mode: frame error:", err)
			}
			return
		}
		m.handleFrame(frame)
		frame.Close()
	}
}

func (m *HuntMode) handleFrame(frame gocv.Mat) {
	m.ticks++
	det := m.Target
	if m.Navigator.WantsContainer() {
		det = m.Container
	}
	boxes, err := det.Detect(frame)
	if err != nil {
		// Treated as an empty frame; the navigator's idle handling
		// copes with gaps.
		fmt.Printf("Hunt mode: %s detector failed: %v\n", det.Name(), err)
		boxes = nil
	}

	if atomic.CompareAndSwapInt32(&m.savePicture, 1, 0) {
		m.saveFrame(frame, boxes, det.Name())
	}

	if err := m.Navigator.Tick(boxes, frame.Cols()); err != nil {
		fmt.Println("Hunt mode: tick error:", err)
	}
	screen.Update(m.Navigator.RunState(), boxes)
}

func (m *HuntMode) saveFrame(frame gocv.Mat, boxes []navigation.BoundingBox, label string) {
	if m.PictureDir == "" {
		return
	}
	img := frame.Clone()
	defer img.Close()
	vision.MarkBoxes(&img, boxes, label)
	path := filepath.Join(m.PictureDir, fmt.Sprintf("image-%04d.jpg", m.pictureIndex))
	m.pictureIndex++
	if !gocv.IMWrite(path, img) {
		fmt.Println("Hunt mode: failed to write", path)
		return
	}
	fmt.Println("Hunt mode: wrote", path)
}

func (m *HuntMode) stopMotors() {
	if err := m.Drive.Apply(drive.NewIntent(drive.Coast, 0)); err != nil {
		fmt.Println("Hunt mode: failed to stop motors:", err)
	}
}
