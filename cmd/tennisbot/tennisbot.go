package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/hardware"
	"github.com/tigerbot-team/tennisbot/pkg/huntmode"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
	"github.com/tigerbot-team/tennisbot/pkg/vision"
)

var CLI struct {
	Config string `help:"Config file to overlay on the defaults." default:"/cfg/tennisbot.yaml" type:"path"`

	Run         RunCmd         `cmd:"" default:"1" help:"Fetch balls until stopped."`
	Gesture     GestureCmd     `cmd:"" help:"Play one gripper gesture."`
	CheckConfig CheckConfigCmd `cmd:"" help:"Validate the config and print the result."`
	Detect      DetectCmd      `cmd:"" help:"Run the ball detector over a directory of images."`
}

type Context struct {
	cfg  config.Config
	path string
}

func (c *Context) hardware(dummy bool) (*hardware.Hardware, error) {
	if dummy {
		return hardware.NewDummy(c.cfg)
	}
	return hardware.New(c.cfg)
}

type RunCmd struct {
	Dummy      bool   `help:"Use pretend motors and servos."`
	PictureDir string `help:"Where SIGUSR1 saves annotated frames." type:"path"`
}

func (r *RunCmd) Run(c *Context) error {
	if err := c.cfg.WriteInUse(c.path); err != nil {
		fmt.Println(err)
	}

	// Our global context, we cancel it to trigger shut down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hw, err := c.hardware(r.Dummy)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()
	hw.Start(ctx)

	target, err := vision.NewTargetDetector(c.cfg.Detector)
	if err != nil {
		return err
	}
	defer target.Close()
	container := vision.NewContainerDetector(c.cfg.Detector)
	defer container.Close()
	fmt.Println("Target detector:", target.Name())

	nav := navigation.New(c.cfg.Navigation, hw.Drive(), hw.Gripper(), nil)
	nav.OnStateChange = func(from, to navigation.State) {
		hw.Cue(to.String())
	}

	mode := huntmode.New(nav, hw.Drive(), target, container, func() (huntmode.Frames, error) {
		cam, err := vision.OpenCamera(c.cfg.Camera)
		if err != nil {
			return nil, err
		}
		return cam, nil
	})
	if r.PictureDir != "" {
		// One directory per run so saved frames are never overwritten.
		runID := uuid.New().String()
		mode.PictureDir = filepath.Join(r.PictureDir, runID)
		if err := os.MkdirAll(mode.PictureDir, 0755); err != nil {
			return err
		}
		fmt.Println("Saving pictures to", mode.PictureDir)
	}

	registerSignalHandlers(&signalHandler{
		cancel: cancel,
		halt: func() {
			if err := hw.Drive().Coast(); err != nil {
				fmt.Println("Failed to coast motors:", err)
			}
		},
		savePicture: mode.SavePicture,
		exit:        os.Exit,
		grace:       c.cfg.Navigation.Release.BackoffDuration + 2*time.Second,
	})

	fmt.Printf("----- %s -----\n", mode.Name())
	mode.Start(ctx)

	done := make(chan struct{})
	go func() {
		mode.Wait()
		close(done)
	}()

	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping hunt mode and shutting down")
			mode.Stop()
			return nil
		case <-done:
			return fmt.Errorf("%s exited unexpectedly", mode.Name())
		case <-watchdog.C:
			fmt.Println("Main loop still running; state", nav.State())
		}
	}
}

type GestureCmd struct {
	Dummy bool   `help:"Use pretend servos."`
	Name  string `arg:"" help:"Gesture to play."`
}

func (g *GestureCmd) Run(c *Context) error {
	hw, err := c.hardware(g.Dummy)
	if err != nil {
		return err
	}
	defer hw.Shutdown()
	return hw.Gripper().Run(g.Name)
}

type CheckConfigCmd struct{}

func (*CheckConfigCmd) Run(c *Context) error {
	// Load has already validated it.
	data, err := yaml.Marshal(&c.cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	fmt.Println("Config OK:", c.path)
	return nil
}

type DetectCmd struct {
	Dir string `arg:"" help:"Directory of images." type:"existingdir"`
	Out string `help:"Output directory for results.json and annotated images." default:"detect-output" type:"path"`
}

func (d *DetectCmd) Run(c *Context) error {
	det, err := vision.NewTargetDetector(c.cfg.Detector)
	if err != nil {
		return err
	}
	defer det.Close()

	report, err := vision.RunBatch(det, d.Dir, d.Out)
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())
	fmt.Println("Results written to", d.Out)
	return nil
}

func main() {
	fmt.Println("---- tennisbot ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kctx := kong.Parse(&CLI,
		kong.Name("tennisbot"),
		kong.Description("Finds tennis balls and puts them in the bucket."),
	)
	cfg, err := config.Load(CLI.Config)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&Context{cfg: cfg, path: CLI.Config})
	kctx.FatalIfErrorf(err)
}

// signalHandler turns signals into actions.  SIGUSR1 saves a picture; any
// other signal shuts down.
type signalHandler struct {
	cancel      context.CancelFunc
	halt        func()
	savePicture func()
	exit        func(int)
	// grace is how long the main loop gets to shut down before we force
	// an exit.  It must outlast a release back-off.
	grace time.Duration
}

func (h *signalHandler) handle(s os.Signal) {
	if s == syscall.SIGUSR1 {
		h.savePicture()
		return
	}
	log.Println("Signal: ", s)
	h.halt()
	h.cancel()
	time.Sleep(h.grace)
	// A tick in flight when we cancelled may have driven the motors again.
	h.halt()
	h.exit(0)
}

func registerSignalHandlers(h *signalHandler) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1)
	go func() {
		for s := range signals {
			h.handle(s)
		}
	}()
}
