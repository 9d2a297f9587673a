// Package detect has the parts of the detectors that don't need OpenCV: the
// letterbox geometry and output decoding for YOLOv8 models, and the line
// protocol spoken by out-of-process detectors.
package detect

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// Letterbox records how a frame was scaled and padded into a square model
// input, keeping its aspect ratio.
type Letterbox struct {
	SrcW, SrcH int
	Size       int
	Scale      float64
	NewW, NewH int

	Top, Bottom, Left, Right int

	padX, padY float64
}

func NewLetterbox(srcW, srcH, size int) Letterbox {
	r := math.Min(float64(size)/float64(srcH), float64(size)/float64(srcW))
	l := Letterbox{
		SrcW:  srcW,
		SrcH:  srcH,
		Size:  size,
		Scale: r,
		NewW:  int(math.RoundToEven(float64(srcW) * r)),
		NewH:  int(math.RoundToEven(float64(srcH) * r)),
	}
	l.padX = float64(size-l.NewW) / 2
	l.padY = float64(size-l.NewH) / 2
	l.Top = int(math.RoundToEven(l.padY - 0.1))
	l.Bottom = int(math.RoundToEven(l.padY + 0.1))
	l.Left = int(math.RoundToEven(l.padX - 0.1))
	l.Right = int(math.RoundToEven(l.padX + 0.1))
	return l
}

// Unmap converts a centre/size box in model input pixels back to a box in the
// source frame, clipped to the frame.
func (l Letterbox) Unmap(cx, cy, w, h float64) navigation.BoundingBox {
	x1 := math.Max(0, (cx-w/2-l.padX)/l.Scale)
	y1 := math.Max(0, (cy-h/2-l.padY)/l.Scale)
	x2 := math.Min(float64(l.SrcW), (cx+w/2-l.padX)/l.Scale)
	y2 := math.Min(float64(l.SrcH), (cy+h/2-l.padY)/l.Scale)
	b := navigation.BoundingBox{X: int(x1), Y: int(y1), W: int(x2 - x1), H: int(y2 - y1)}
	if b.W < 0 {
		b.W = 0
	}
	if b.H < 0 {
		b.H = 0
	}
	return b
}

type Candidate struct {
	Box   navigation.BoundingBox
	Score float32
}

// DecodeYOLOv8 reads the [4+classes, anchors] output of a YOLOv8 head (row
// major, the batch dimension dropped) and returns the boxes for class whose
// score beats threshold, in source frame coordinates.  Overlaps are left for
// the caller's NMS.
func DecodeYOLOv8(out []float32, anchors, class int, threshold float32, lb Letterbox) ([]Candidate, error) {
	if anchors <= 0 || len(out)%anchors != 0 {
		return nil, fmt.Errorf("output of %d values doesn't divide into %d anchors", len(out), anchors)
	}
	rows := len(out) / anchors
	if class < 0 || 4+class >= rows {
		return nil, fmt.Errorf("class %d not in a %d row output", class, rows)
	}
	var cands []Candidate
	scores := out[(4+class)*anchors : (5+class)*anchors]
	for i, score := range scores {
		if score <= threshold {
			continue
		}
		cx := float64(out[i])
		cy := float64(out[anchors+i])
		w := float64(out[2*anchors+i])
		h := float64(out[3*anchors+i])
		cands = append(cands, Candidate{Box: lb.Unmap(cx, cy, w, h), Score: score})
	}
	return cands, nil
}

const ResultPrefix = "RESULT: "

// Box is the JSON form of a bounding box.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func ToBoxes(bbs []navigation.BoundingBox) []Box {
	boxes := make([]Box, 0, len(bbs))
	for _, b := range bbs {
		boxes = append(boxes, Box{b.X, b.Y, b.W, b.H})
	}
	return boxes
}

// FormatResult renders boxes as a result line, without the newline.
func FormatResult(bbs []navigation.BoundingBox) string {
	data, _ := json.Marshal(ToBoxes(bbs))
	return ResultPrefix + string(data)
}

// ParseResult reads a result line.  ok is false for any other line, which
// callers should skip; helpers are free to print chatter.
func ParseResult(line string) (bbs []navigation.BoundingBox, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, ResultPrefix) {
		return nil, false, nil
	}
	var boxes []Box
	if err := json.Unmarshal([]byte(line[len(ResultPrefix):]), &boxes); err != nil {
		return nil, true, fmt.Errorf("bad result %q: %w", line, err)
	}
	for _, b := range boxes {
		if b.W < 0 || b.H < 0 {
			return nil, true, fmt.Errorf("negative box size in %q", line)
		}
		bbs = append(bbs, navigation.BoundingBox{X: b.X, Y: b.Y, W: b.W, H: b.H})
	}
	return bbs, true, nil
}
