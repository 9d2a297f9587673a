package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const DefaultSysfsRoot = "/sys/class/pwm"

// Sysfs is a channel on a kernel PWM chip, driven through /sys/class/pwm.
type Sysfs struct {
	dir    string
	period int
}

// OpenSysfs exports channel on pwmchip<chip> (if it isn't already), sets the
// period in nanoseconds and enables the output with zero duty.
func OpenSysfs(root string, chip, channel, periodNS int) (*Sysfs, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Printf("PWM: exporting channel %d of pwmchip%d\n", channel, chip)
		if err := writeSysfs(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return nil, err
		}
		// udev needs a moment to fix up permissions on the new directory.
		time.Sleep(50 * time.Millisecond)
	}
	s := &Sysfs{dir: dir, period: periodNS}
	// The kernel rejects a duty above the period, so clear it first.
	_ = writeSysfs(filepath.Join(dir, "duty_cycle"), "0")
	if err := writeSysfs(filepath.Join(dir, "period"), strconv.Itoa(periodNS)); err != nil {
		return nil, err
	}
	if err := s.SetDuty(0); err != nil {
		return nil, err
	}
	if err := writeSysfs(filepath.Join(dir, "enable"), "1"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sysfs) Period() int {
	return s.period
}

func (s *Sysfs) SetDuty(duty int) error {
	return writeSysfs(filepath.Join(s.dir, "duty_cycle"), strconv.Itoa(duty))
}

// Disable turns the output off altogether.
func (s *Sysfs) Disable() error {
	return writeSysfs(filepath.Join(s.dir, "enable"), "0")
}

func writeSysfs(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(value); err != nil {
		return fmt.Errorf("failed to write %q to %s: %w", value, path, err)
	}
	return nil
}
