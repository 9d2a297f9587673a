package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/detect"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

type ONNXOptions struct {
	InputSize           int
	Class               int
	ConfidenceThreshold float32
	NMSThreshold        float32
}

// ONNXDetector runs a YOLOv8 model on the CPU through OpenCV's dnn module.
type ONNXDetector struct {
	net  gocv.Net
	opts ONNXOptions
}

func NewONNXDetector(model string, opts ONNXOptions) (*ONNXDetector, error) {
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	net := gocv.ReadNetFromONNX(model)
	if net.Empty() {
		return nil, fmt.Errorf("couldn't load model %s", model)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		fmt.Println("ONNX: failed to set backend:", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		fmt.Println("ONNX: failed to set target:", err)
	}
	fmt.Printf("ONNX: loaded %s, input %dx%d\n", model, opts.InputSize, opts.InputSize)
	return &ONNXDetector{net: net, opts: opts}, nil
}

func (d *ONNXDetector) Name() string {
	return "onnx"
}

// letterbox scales img into a square of the model's input size, padding with
// grey.
func letterbox(img gocv.Mat, lb detect.Letterbox) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	if lb.NewW != img.Cols() || lb.NewH != img.Rows() {
		gocv.Resize(img, &resized, image.Pt(lb.NewW, lb.NewH), 0, 0, gocv.InterpolationLinear)
	} else {
		img.CopyTo(&resized)
	}
	padded := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &padded, lb.Top, lb.Bottom, lb.Left, lb.Right,
		gocv.BorderConstant, color.RGBA{114, 114, 114, 0})
	return padded
}

func (d *ONNXDetector) Detect(frame gocv.Mat) ([]navigation.BoundingBox, error) {
	size := d.opts.InputSize
	lb := detect.NewLetterbox(frame.Cols(), frame.Rows(), size)
	input := letterbox(frame, lb)
	defer input.Close()

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading model output: %w", err)
	}
	cands, err := detect.DecodeYOLOv8(data, dims[2], d.opts.Class, d.opts.ConfidenceThreshold, lb)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		rects[i] = image.Rect(c.Box.X, c.Box.Y, c.Box.X+c.Box.W, c.Box.Y+c.Box.H)
		scores[i] = c.Score
	}
	keep := gocv.NMSBoxes(rects, scores, d.opts.ConfidenceThreshold, d.opts.NMSThreshold)
	boxes := make([]navigation.BoundingBox, 0, len(keep))
	for _, i := range keep {
		boxes = append(boxes, cands[i].Box)
	}
	return boxes, nil
}

func (d *ONNXDetector) Close() error {
	return d.net.Close()
}
