package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// Size is the panel's width and height in pixels.
const Size = 128

// Status is what the panel shows.
type Status struct {
	State   navigation.State
	Counter int
	Box     navigation.BoundingBox
	Seen    bool
}

var (
	lock    sync.Mutex
	current Status
)

// Update records the navigator's latest state for the next redraw.
func Update(st navigation.RunState, boxes []navigation.BoundingBox) {
	box, seen := navigation.Largest(boxes)
	lock.Lock()
	defer lock.Unlock()
	current = Status{
		State:   st.State,
		Counter: st.Counter,
		Box:     box,
		Seen:    seen,
	}
}

func Current() Status {
	lock.Lock()
	defer lock.Unlock()
	return current
}

// LoopUpdatingScreen redraws the framebuffer twice a second until ctx is
// done, then blanks it.
func LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	var buf [Size * Size * 2]byte
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			buf = [Size * Size * 2]byte{}
			_ = write(f, buf[:])
			return
		case <-ticker.C:
		}
		ToRGB565(Render(Current()), buf[:])
		if err := write(f, buf[:]); err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
	}
}

func write(f *os.File, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	// One row at a time; the SPI driver drops data if we go faster.
	for i := 0; i < Size; i++ {
		if _, err := f.Write(buf[i*Size*2 : (i+1)*Size*2]); err != nil {
			return err
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

// Render draws the status panel.
func Render(s Status) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(s.State.String(), 4, 14)
	dc.DrawString(fmt.Sprintf("count %d", s.Counter), 4, 30)
	if !s.Seen {
		dc.SetRGB(1, 0.2, 0)
		dc.DrawString("no box", 4, 46)
		return dc.Image()
	}
	dc.DrawString(fmt.Sprintf("w=%d x=%d", s.Box.W, s.Box.CenterX()), 4, 46)

	// Where the box sits in a 640 pixel wide frame, scaled to the panel.
	const frameWidth = 640
	scale := float64(Size-8) / frameWidth
	dc.SetRGB(0, 1, 0)
	dc.DrawRectangle(
		4+float64(s.Box.X)*scale,
		60+float64(s.Box.Y)*scale,
		float64(s.Box.W)*scale,
		float64(s.Box.H)*scale,
	)
	dc.Stroke()
	return dc.Image()
}

// ToRGB565 converts img to the panel's pixel format.  The panel is mounted
// rotated, so rows and columns are swapped.
func ToRGB565(img image.Image, buf []byte) {
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(Size-1-y)*2+x*Size*2+1] = (rb << 3) | (gb >> 3)
			buf[(Size-1-y)*2+x*Size*2] = bb | (gb << 5)
		}
	}
}
