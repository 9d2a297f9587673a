package vision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/detect"
)

// RunBatch runs det over every image in dir.  Annotated copies go to
// outDir/images and the boxes to outDir/results.json.
func RunBatch(det Detector, dir, outDir string) (*detect.Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	imgDir := filepath.Join(outDir, "images")
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		return nil, err
	}

	report := detect.NewReport()
	for _, e := range entries {
		name := e.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}

		img := gocv.IMRead(filepath.Join(dir, name), gocv.IMReadColor)
		if img.Empty() {
			fmt.Println("Batch: couldn't read", name)
			report.AddUnreadable(name)
			img.Close()
			continue
		}
		start := time.Now()
		boxes, err := det.Detect(img)
		took := time.Since(start)
		if err != nil {
			fmt.Printf("Batch: %s: %v\n", name, err)
			boxes = nil
		}
		report.Add(name, boxes, took)

		MarkBoxes(&img, boxes, "det")
		if !gocv.IMWrite(filepath.Join(imgDir, name), img) {
			fmt.Println("Batch: couldn't write annotated", name)
		}
		img.Close()
		fmt.Printf("Batch: %-20s %d boxes (%d total) in %v\n", name, len(boxes), report.Total, took)
	}

	if err := report.WriteJSON(filepath.Join(outDir, "results.json")); err != nil {
		return report, err
	}
	return report, nil
}
