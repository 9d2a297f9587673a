package hardware

import (
	"context"
	"fmt"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/screen"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
	"github.com/tigerbot-team/tennisbot/pkg/sound"
)

type Hardware struct {
	cfg config.Config

	servos  Servos
	drive   *drive.Controller
	gripper *gripper.Gripper
	sound   *sound.Player

	closers []func() error
	stopped bool
}

var _ Interface = (*Hardware)(nil)

// New opens the servo bus and the motors and homes the arm.  Any failure is
// fatal: the robot is no use without them.
func New(cfg config.Config) (*Hardware, error) {
	bus, err := servobus.Open(servobus.Config{
		Port:        cfg.Servo.Port,
		BaudRate:    cfg.Servo.BaudRate,
		ReadTimeout: cfg.Servo.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	h, err := assemble(cfg, bus)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	h.closers = append(h.closers, bus.Close)
	return h, nil
}

func assemble(cfg config.Config, servos Servos) (*Hardware, error) {
	left, right, closers, err := openMotors(cfg.Drive)
	if err != nil {
		return nil, err
	}
	h := &Hardware{
		cfg:     cfg,
		servos:  servos,
		drive:   drive.New(left, right, cfg.Drive.ArcRatio),
		gripper: gripper.New(servos, cfg.Servo.Speed, cfg.Gestures),
		sound:   sound.New(cfg.Sound),
		closers: closers,
	}
	if err := h.drive.Coast(); err != nil {
		h.Shutdown()
		return nil, fmt.Errorf("failed to stop motors: %w", err)
	}
	if err := h.gripper.Init(); err != nil {
		h.Shutdown()
		return nil, fmt.Errorf("failed to initialise gripper: %w", err)
	}
	return h, nil
}

func (h *Hardware) Start(ctx context.Context) {
	if h.cfg.Screen.Enabled {
		go screen.LoopUpdatingScreen(ctx, h.cfg.Screen.Device)
	}
}

func (h *Hardware) Drive() *drive.Controller {
	return h.drive
}

func (h *Hardware) Gripper() *gripper.Gripper {
	return h.gripper
}

func (h *Hardware) Servos() Servos {
	return h.servos
}

func (h *Hardware) Cue(name string) {
	h.sound.Cue(name)
}

func (h *Hardware) PlaySound(path string) {
	h.sound.Play(path)
}

func (h *Hardware) Shutdown() {
	if h.stopped {
		return
	}
	h.stopped = true
	fmt.Println("HW: Stopping motors")
	if err := h.drive.Coast(); err != nil {
		fmt.Println("HW: failed to stop motors:", err)
	}
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			fmt.Println("HW: close failed:", err)
		}
	}
	h.closers = nil
	h.sound.Close()
}
