package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// MarkBoxes draws boxes on img, for saved debug pictures.
func MarkBoxes(img *gocv.Mat, boxes []navigation.BoundingBox, label string) {
	green := color.RGBA{0, 255, 0, 0}
	for _, b := range boxes {
		gocv.Rectangle(img, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H), green, 2)
		gocv.PutText(img, label, image.Pt(b.X, b.Y-5), gocv.FontHersheySimplex, 0.5, green, 1)
	}
}
