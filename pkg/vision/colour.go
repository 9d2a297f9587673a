package vision

import (
	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// HSVRange uses OpenCV's 0-180 hue.  HueMin > HueMax wraps around through
// 180, which is what red needs.
type HSVRange struct {
	HueMin, HueMax byte
	SatMin, SatMax byte
	ValMin, ValMax byte
}

func hsvMaskNoWrapAround(hsv gocv.Mat, r HSVRange, mask *gocv.Mat) {
	lb := gocv.NewScalar(float64(r.HueMin), float64(r.SatMin), float64(r.ValMin), 0)
	ub := gocv.NewScalar(float64(r.HueMax), float64(r.SatMax), float64(r.ValMax), 0)
	gocv.InRangeWithScalar(hsv, lb, ub, mask)
}

// HSVMask returns a mask of the pixels in range.  The caller closes it.
func HSVMask(hsv gocv.Mat, r HSVRange) gocv.Mat {
	mask := gocv.NewMat()
	if r.HueMax >= r.HueMin {
		hsvMaskNoWrapAround(hsv, r, &mask)
		return mask
	}
	upper := r
	upper.HueMax = 180
	hsvMaskNoWrapAround(hsv, upper, &mask)

	lower := r
	lower.HueMin = 0
	mask2 := gocv.NewMat()
	defer mask2.Close()
	hsvMaskNoWrapAround(hsv, lower, &mask2)

	gocv.BitwiseOr(mask, mask2, &mask)
	return mask
}

// ColourDetector finds blobs of one colour.
type ColourDetector struct {
	Range   HSVRange
	MinArea float64
	// Erode/dilate passes to knock out speckle.
	CleanupPasses int
}

func NewColourDetector(r HSVRange, minArea float64) *ColourDetector {
	return &ColourDetector{
		Range:         r,
		MinArea:       minArea,
		CleanupPasses: 2,
	}
}

func (d *ColourDetector) Name() string {
	return "colour"
}

func (d *ColourDetector) Detect(frame gocv.Mat) ([]navigation.BoundingBox, error) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := HSVMask(hsv, d.Range)
	defer mask.Close()

	nullMat := gocv.NewMat()
	defer nullMat.Close()
	for i := 0; i < d.CleanupPasses; i++ {
		gocv.Erode(mask, &mask, nullMat)
	}
	for i := 0; i < d.CleanupPasses; i++ {
		gocv.Dilate(mask, &mask, nullMat)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var boxes []navigation.BoundingBox
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) <= d.MinArea {
			continue
		}
		r := gocv.BoundingRect(c)
		boxes = append(boxes, navigation.BoundingBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()})
	}
	return boxes, nil
}

func (d *ColourDetector) Close() error {
	return nil
}
