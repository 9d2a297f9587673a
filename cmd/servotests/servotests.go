package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

var CLI struct {
	Quit    QuitCmd    `cmd:"" help:"Quit."`
	Move    MoveCmd    `cmd:"" help:"Move a servo to an angle in degrees."`
	Pos     PosCmd     `cmd:"" help:"Move a servo to a raw position (0-4095)."`
	Read    ReadCmd    `cmd:"" help:"Read a servo's present position."`
	Ping    PingCmd    `cmd:"" help:"Ping a servo."`
	Speed   SpeedCmd   `cmd:"" help:"Set a servo's goal speed (0-254)."`
	Torque  TorqueCmd  `cmd:"" help:"Enable or disable a servo's torque."`
	Gesture GestureCmd `cmd:"" help:"Play a gripper gesture."`
	List    ListCmd    `cmd:"" help:"List the gestures."`
}

type Context struct {
	bus     *servobus.Bus
	gripper *gripper.Gripper
}

type QuitCmd struct{}

func (q *QuitCmd) Run(ctx *Context) error {
	return Quit
}

var Quit = errors.New("Quit")

type MoveCmd struct {
	ID    servobus.ServoID `arg:""`
	Angle float64          `arg:""`
}

func (c *MoveCmd) Run(ctx *Context) error {
	fmt.Printf("Moving servo %d to %.1f° (%d)\n", c.ID, c.Angle, servobus.AngleToPosition(c.Angle))
	return ctx.bus.MoveToAngle(c.ID, c.Angle)
}

type PosCmd struct {
	ID       servobus.ServoID `arg:""`
	Position int              `arg:""`
}

func (c *PosCmd) Run(ctx *Context) error {
	return ctx.bus.MoveToPosition(c.ID, c.Position)
}

type ReadCmd struct {
	ID servobus.ServoID `arg:""`
}

func (c *ReadCmd) Run(ctx *Context) error {
	pos, err := ctx.bus.PresentPosition(c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Servo %d at %d (%.1f°)\n", c.ID, pos, servobus.PositionToAngle(pos))
	return nil
}

type PingCmd struct {
	ID servobus.ServoID `arg:""`
}

func (c *PingCmd) Run(ctx *Context) error {
	if err := ctx.bus.Ping(c.ID, ctx.bus.ReadTimeout()); err != nil {
		return err
	}
	fmt.Printf("Servo %d is there\n", c.ID)
	return nil
}

type SpeedCmd struct {
	ID    servobus.ServoID `arg:""`
	Speed int              `arg:""`
}

func (c *SpeedCmd) Run(ctx *Context) error {
	return ctx.bus.SetSpeed(c.ID, c.Speed)
}

type TorqueCmd struct {
	ID servobus.ServoID `arg:""`
	On string           `arg:"" enum:"on,off"`
}

func (c *TorqueCmd) Run(ctx *Context) error {
	return ctx.bus.SetTorque(c.ID, c.On == "on")
}

type GestureCmd struct {
	Name string `arg:""`
}

func (c *GestureCmd) Run(ctx *Context) error {
	return ctx.gripper.Run(c.Name)
}

type ListCmd struct{}

func (*ListCmd) Run(ctx *Context) error {
	fmt.Println(strings.Join(ctx.gripper.Names(), " "))
	return nil
}

func main() {
	fmt.Println("---- servotests ----")

	cfgPath := config.DefaultPath
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	k, err := kong.New(&CLI, kong.Exit(func(int) {}))
	if err != nil {
		panic(err)
	}

	bus, err := servobus.Open(servobus.Config{
		Port:        cfg.Servo.Port,
		BaudRate:    cfg.Servo.BaudRate,
		ReadTimeout: cfg.Servo.ReadTimeout,
	})
	if err != nil {
		fmt.Println("Failed to open servo bus:", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx := &Context{
		bus:     bus,
		gripper: gripper.New(bus, cfg.Servo.Speed, cfg.Gestures),
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		parsed, err := k.Parse(strings.Fields(command))
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		err = parsed.Run(ctx)
		if err == Quit {
			break
		}
		if err != nil {
			fmt.Println("error:", err)
		}
	}
}
