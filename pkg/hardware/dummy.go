package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

// NewDummy builds the robot on recording PWM channels and a pretend servo
// bus, for dry runs without the hardware.
func NewDummy(cfg config.Config) (*Hardware, error) {
	cfg.Drive.Backend = "dummy"
	cfg.Sound.Enabled = false
	cfg.Screen.Enabled = false
	return assemble(cfg, NewDummyServos())
}

// DummyServos remembers the last position each servo was sent to and
// reports it back.
type DummyServos struct {
	lock      sync.Mutex
	positions map[servobus.ServoID]int
}

var _ Servos = (*DummyServos)(nil)

func NewDummyServos() *DummyServos {
	return &DummyServos{positions: map[servobus.ServoID]int{}}
}

func (d *DummyServos) MoveToPosition(id servobus.ServoID, pos int) error {
	fmt.Printf("DHW: servo %d -> %d\n", id, pos)
	d.lock.Lock()
	defer d.lock.Unlock()
	d.positions[id] = pos
	return nil
}

func (d *DummyServos) MoveToAngle(id servobus.ServoID, angle float64) error {
	return d.MoveToPosition(id, servobus.AngleToPosition(angle))
}

func (d *DummyServos) SetSpeed(id servobus.ServoID, speed int) error {
	fmt.Printf("DHW: servo %d speed %d\n", id, speed)
	return nil
}

func (d *DummyServos) SetTorque(id servobus.ServoID, enabled bool) error {
	fmt.Printf("DHW: servo %d torque %v\n", id, enabled)
	return nil
}

func (d *DummyServos) PresentPosition(id servobus.ServoID) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	pos, ok := d.positions[id]
	if !ok {
		return 0, servobus.ErrTimeout
	}
	return pos, nil
}

func (d *DummyServos) Ping(id servobus.ServoID, timeout time.Duration) error {
	fmt.Printf("DHW: ping %d\n", id)
	return nil
}
