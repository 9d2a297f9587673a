package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

var red = HSVRange{170, 10, 80, 255, 50, 255}

func fill(m gocv.Mat, r image.Rectangle, hue float64) {
	region := m.Region(r)
	defer region.Close()
	region.SetTo(gocv.NewScalar(hue, 255, 255, 0))
}

// redScene returns an HSV frame on a cyan background with a red block whose
// left half sits at hue 175 and right half at hue 5, plus a small red square.
func redScene() gocv.Mat {
	hsv := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 255, 255, 0), 120, 240, gocv.MatTypeCV8UC3)
	fill(hsv, image.Rect(20, 20, 120, 100), 175)
	fill(hsv, image.Rect(120, 20, 220, 100), 5)
	fill(hsv, image.Rect(228, 5, 238, 15), 175)
	return hsv
}

func countIn(mask gocv.Mat, r image.Rectangle) int {
	region := mask.Region(r)
	defer region.Close()
	return gocv.CountNonZero(region)
}

func TestHSVMaskWrapsThroughRed(t *testing.T) {
	hsv := redScene()
	defer hsv.Close()

	mask := HSVMask(hsv, red)
	defer mask.Close()
	assert.Equal(t, 8000, countIn(mask, image.Rect(20, 20, 120, 100)))
	assert.Equal(t, 8000, countIn(mask, image.Rect(120, 20, 220, 100)))
	assert.Equal(t, 8000+8000+100, gocv.CountNonZero(mask))

	// Without the wrap only the upper hues match.
	upper := HSVMask(hsv, HSVRange{170, 179, 80, 255, 50, 255})
	defer upper.Close()
	assert.Equal(t, 8000, countIn(upper, image.Rect(20, 20, 120, 100)))
	assert.Zero(t, countIn(upper, image.Rect(120, 20, 220, 100)))
}

func TestColourDetectorFiltersSmallBlobs(t *testing.T) {
	hsv := redScene()
	defer hsv.Close()
	frame := gocv.NewMat()
	defer frame.Close()
	gocv.CvtColor(hsv, &frame, gocv.ColorHSVToBGR)

	d := NewColourDetector(red, 200)
	boxes, err := d.Detect(frame)
	require.NoError(t, err)
	assert.Equal(t, []navigation.BoundingBox{{X: 20, Y: 20, W: 200, H: 80}}, boxes)

	d.MinArea = 50
	d.CleanupPasses = 0
	boxes, err = d.Detect(frame)
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
	assert.Contains(t, boxes, navigation.BoundingBox{X: 228, Y: 5, W: 10, H: 10})
}
