package detect

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// Report collects the results of a batch run over a directory of images.
type Report struct {
	Results map[string][]Box
	Timings map[string]time.Duration
	Total   int
}

func NewReport() *Report {
	return &Report{
		Results: map[string][]Box{},
		Timings: map[string]time.Duration{},
	}
}

// Add records one image and how long inference took on it.
func (r *Report) Add(name string, bbs []navigation.BoundingBox, took time.Duration) {
	r.Results[name] = ToBoxes(bbs)
	r.Timings[name] = took
	r.Total += len(bbs)
}

// AddUnreadable records an image that could not be decoded.  It appears in
// the results with no boxes but takes no part in the timings.
func (r *Report) AddUnreadable(name string) {
	r.Results[name] = []Box{}
}

// Timing returns the mean, slowest and fastest inference times.
func (r *Report) Timing() (mean, max, min time.Duration) {
	if len(r.Timings) == 0 {
		return 0, 0, 0
	}
	ms := make([]float64, 0, len(r.Timings))
	for _, t := range r.Timings {
		ms = append(ms, float64(t)/float64(time.Millisecond))
	}
	toDuration := func(v float64) time.Duration {
		return time.Duration(math.Round(v * float64(time.Millisecond)))
	}
	return toDuration(stat.Mean(ms, nil)), toDuration(floats.Max(ms)), toDuration(floats.Min(ms))
}

func (r *Report) Summary() string {
	mean, max, min := r.Timing()
	return fmt.Sprintf("%d images, %d boxes; inference mean %v, max %v, min %v",
		len(r.Results), r.Total, mean, max, min)
}

// Names returns the image names in order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Results))
	for n := range r.Results {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WriteJSON writes the results as {"image.jpg": [{"x":..,"y":..,"w":..,"h":..}]}.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r.Results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
