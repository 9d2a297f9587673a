package vision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/handoff"
)

// Camera reads frames on its own goroutine and keeps only the newest one for
// the control loop.
type Camera struct {
	cfg    config.Camera
	webcam *gocv.VideoCapture
	frames *handoff.Latest[gocv.Mat]

	wg sync.WaitGroup
}

func OpenCamera(cfg config.Camera) (*Camera, error) {
	webcam, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("error opening video capture device %d: %w", cfg.Device, err)
	}
	webcam.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	if cfg.Width > 0 && cfg.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return &Camera{
		cfg:    cfg,
		webcam: webcam,
		frames: handoff.NewLatest(func(m gocv.Mat) { m.Close() }),
	}, nil
}

// Start begins capturing.  The goroutine exits when ctx is done.
func (c *Camera) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.loop(ctx)
}

func (c *Camera) loop(ctx context.Context) {
	defer c.wg.Done()
	defer fmt.Println("Camera: exiting capture loop")

	img := gocv.NewMat()
	defer img.Close()
	for ctx.Err() == nil {
		// This blocks until the next frame is ready.
		if ok := c.webcam.Read(&img); !ok || img.Empty() {
			fmt.Println("Camera: cannot read device")
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if c.cfg.Width > 0 && img.Cols() != c.cfg.Width {
			fmt.Printf("Camera: read image %v x %v\n", img.Cols(), img.Rows())
		}
		c.frames.Put(img.Clone())
	}
}

// Next waits for a frame newer than the last one taken.  The caller owns the
// returned Mat.
func (c *Camera) Next(ctx context.Context) (gocv.Mat, error) {
	return c.frames.Take(ctx)
}

// Close waits for the capture goroutine (whose context must already be
// cancelled) and releases the device.
func (c *Camera) Close() error {
	c.wg.Wait()
	c.frames.Drain()
	return c.webcam.Close()
}
