package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// Detector turns a BGR frame into bounding boxes in frame pixels.  An empty
// result is not an error.
type Detector interface {
	Name() string
	Detect(frame gocv.Mat) ([]navigation.BoundingBox, error)
	Close() error
}

// Yellow is a tennis ball, for the colour fallback.
var Yellow = HSVRange{22, 42, 100, 255, 130, 255}

// NewTargetDetector builds the ball detector the config asks for.
func NewTargetDetector(cfg config.Detector) (Detector, error) {
	switch cfg.Backend {
	case "onnx":
		return NewONNXDetector(cfg.Model, ONNXOptions{
			InputSize:           cfg.InputSize,
			Class:               cfg.TargetClass,
			ConfidenceThreshold: float32(cfg.ConfidenceThreshold),
			NMSThreshold:        float32(cfg.NMSThreshold),
		})
	case "subprocess":
		d := NewSubprocessDetector(cfg.Command)
		if err := d.Start(); err != nil {
			return nil, err
		}
		return d, nil
	case "colour":
		return NewColourDetector(Yellow, cfg.BallMinArea), nil
	}
	return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
}

// NewContainerDetector builds the colour detector for the container.
func NewContainerDetector(cfg config.Detector) Detector {
	return NewColourDetector(HSVRange(cfg.Container), cfg.MinArea)
}
