package pwm

import (
	"fmt"
	"sync"
)

// Channel is one PWM output line.  Duty is in the channel's own units, 0 up to
// and including Period().  For sysfs and periph channels those units are
// nanoseconds; a PCA9685 channel counts in 1/4096ths.
type Channel interface {
	Period() int
	SetDuty(duty int) error
}

// Recorder is a Channel that remembers what it was told.  Used for dry runs
// and tests.
type Recorder struct {
	Name string

	lock    sync.Mutex
	period  int
	duty    int
	history []int
	verbose bool
}

func NewRecorder(name string, period int) *Recorder {
	return &Recorder{Name: name, period: period}
}

// Verbose makes the recorder print every write, for the dummy hardware.
func (r *Recorder) Verbose() *Recorder {
	r.verbose = true
	return r
}

func (r *Recorder) Period() int {
	return r.period
}

func (r *Recorder) SetDuty(duty int) error {
	if duty < 0 || duty > r.period {
		return fmt.Errorf("duty %d outside [0, %d] on %s", duty, r.period, r.Name)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.duty = duty
	r.history = append(r.history, duty)
	if r.verbose {
		fmt.Printf("PWM %s: duty=%d/%d\n", r.Name, duty, r.period)
	}
	return nil
}

func (r *Recorder) Duty() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.duty
}

func (r *Recorder) History() []int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]int(nil), r.history...)
}
