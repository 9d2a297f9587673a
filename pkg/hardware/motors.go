package hardware

import (
	"fmt"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/pca9685"
	"github.com/tigerbot-team/tennisbot/pkg/pwm"
)

// openMotors builds both motors on the configured PWM backend.  The returned
// closers release whatever the backend opened.
func openMotors(cfg config.Drive) (left, right *drive.Motor, closers []func() error, err error) {
	defer func() {
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			closers = nil
		}
	}()

	var open func(name string, lines config.MotorLines) (*drive.Motor, error)
	switch cfg.Backend {
	case "sysfs":
		root := cfg.SysfsRoot
		if root == "" {
			root = pwm.DefaultSysfsRoot
		}
		open = func(name string, lines config.MotorLines) (*drive.Motor, error) {
			fwd, err := pwm.OpenSysfs(root, lines.Forward.Chip, lines.Forward.Channel, cfg.PeriodNS)
			if err != nil {
				return nil, err
			}
			closers = append(closers, fwd.Disable)
			rev, err := pwm.OpenSysfs(root, lines.Reverse.Chip, lines.Reverse.Channel, cfg.PeriodNS)
			if err != nil {
				return nil, err
			}
			closers = append(closers, rev.Disable)
			return drive.NewMotor(name, fwd, rev), nil
		}
	case "pca9685":
		chip, err := pca9685.New(cfg.I2CDevice)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open PCA9685 on %s: %w", cfg.I2CDevice, err)
		}
		closers = append(closers, chip.Close)
		if err := chip.Configure(cfg.FrequencyHz); err != nil {
			return nil, nil, closers, fmt.Errorf("failed to configure PCA9685: %w", err)
		}
		open = func(name string, lines config.MotorLines) (*drive.Motor, error) {
			return drive.NewMotor(name,
				&pca9685.Channel{Chip: chip, Port: lines.Forward.Channel},
				&pca9685.Channel{Chip: chip, Port: lines.Reverse.Channel},
			), nil
		}
	case "periph":
		open = func(name string, lines config.MotorLines) (*drive.Motor, error) {
			fwd, err := pwm.OpenPeriph(lines.ForwardPin, cfg.PeriodNS)
			if err != nil {
				return nil, err
			}
			rev, err := pwm.OpenPeriph(lines.ReversePin, cfg.PeriodNS)
			if err != nil {
				return nil, err
			}
			return drive.NewMotor(name, fwd, rev), nil
		}
	case "dummy":
		open = func(name string, lines config.MotorLines) (*drive.Motor, error) {
			return drive.NewMotor(name,
				pwm.NewRecorder(name+"-forward", cfg.PeriodNS).Verbose(),
				pwm.NewRecorder(name+"-reverse", cfg.PeriodNS).Verbose(),
			), nil
		}
	default:
		return nil, nil, nil, fmt.Errorf("unknown drive backend %q", cfg.Backend)
	}

	if left, err = open("left", cfg.Left); err != nil {
		return nil, nil, closers, fmt.Errorf("failed to open left motor: %w", err)
	}
	if right, err = open("right", cfg.Right); err != nil {
		return nil, nil, closers, fmt.Errorf("failed to open right motor: %w", err)
	}
	return left, right, closers, nil
}
