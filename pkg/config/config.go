package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tennisbot/pkg/gripper"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
	"github.com/tigerbot-team/tennisbot/pkg/servobus"
)

const DefaultPath = "/cfg/tennisbot.yaml"

type Servo struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	Speed       int
}

// PWMLine is one sysfs PWM output, pwmchip<Chip>/pwm<Channel>.
type PWMLine struct {
	Chip    int
	Channel int
}

// MotorLines says where one motor's forward and reverse lines are.  Which
// fields matter depends on the drive backend: both chip and channel for
// sysfs, the channels as ports for pca9685, pin names for periph.
type MotorLines struct {
	Forward    PWMLine
	Reverse    PWMLine
	ForwardPin string
	ReversePin string
}

type Drive struct {
	Backend     string
	PeriodNS    int
	ArcRatio    float64
	Left        MotorLines
	Right       MotorLines
	SysfsRoot   string
	I2CDevice   string
	FrequencyHz int
}

type Camera struct {
	Device int
	FPS    int
	Width  int
	Height int
}

type ColourRange struct {
	HueMin, HueMax byte
	SatMin, SatMax byte
	ValMin, ValMax byte
}

type Detector struct {
	Backend             string
	Model               string
	InputSize           int
	ConfidenceThreshold float64
	NMSThreshold        float64
	TargetClass         int
	Command             []string
	Container           ColourRange
	// MinArea is the smallest container contour, in square pixels.
	MinArea float64
	// BallMinArea is the smallest ball contour the colour backend keeps.
	BallMinArea float64
}

type Sound struct {
	Enabled bool
	Dir     string
	// Cues maps state names to WAV files in Dir.
	Cues map[string]string
}

type Screen struct {
	Enabled bool
	Device  string
}

type Config struct {
	Servo      Servo
	Drive      Drive
	Camera     Camera
	Detector   Detector
	Navigation navigation.Config
	// Gestures replace the built-in tables of the same name.
	Gestures map[string]gripper.Gesture `yaml:",omitempty"`
	Sound    Sound
	Screen   Screen
}

func Defaults() Config {
	return Config{
		Servo: Servo{
			Port:        "/dev/ttyACM0",
			BaudRate:    115200,
			ReadTimeout: servobus.DefaultReadTimeout,
			Speed:       gripper.DefaultServoSpeed,
		},
		Drive: Drive{
			Backend:     "sysfs",
			PeriodNS:    500000,
			ArcRatio:    0.8,
			Left:        MotorLines{Forward: PWMLine{0, 0}, Reverse: PWMLine{1, 0}},
			Right:       MotorLines{Forward: PWMLine{4, 0}, Reverse: PWMLine{5, 0}},
			I2CDevice:   "/dev/i2c-1",
			FrequencyHz: 1000,
		},
		Camera: Camera{
			Device: 0,
			FPS:    15,
			Width:  640,
			Height: 480,
		},
		Detector: Detector{
			Backend:             "onnx",
			Model:               "/opt/tennisbot/models/best.onnx",
			InputSize:           640,
			ConfidenceThreshold: 0.25,
			NMSThreshold:        0.45,
			TargetClass:         0,
			Command:             []string{"python3", "/opt/tennisbot/rknn_detect.py"},
			Container:           ColourRange{170, 10, 80, 255, 50, 255},
			MinArea:             5000,
			BallMinArea:         500,
		},
		Navigation: navigation.DefaultConfig(),
		Sound: Sound{
			Enabled: true,
			Dir:     "/sounds",
			Cues: map[string]string{
				navigation.PositionTarget.String(): "found.wav",
				navigation.GrabTarget.String():     "grab.wav",
				navigation.ChaseContainer.String(): "carry.wav",
				navigation.ReleaseTarget.String():  "release.wav",
			},
		},
		Screen: Screen{
			Enabled: true,
			Device:  "/dev/fb1",
		},
	}
}

// SG2002Drive is the drive wiring for SG2002 boards, where each motor's two
// lines are channels of one chip.  Defaults are wired for the RK3588, which
// gives every line a chip of its own.
func SG2002Drive() Drive {
	d := Defaults().Drive
	d.PeriodNS = 10000
	d.Left = MotorLines{Forward: PWMLine{0, 0}, Reverse: PWMLine{0, 1}}
	d.Right = MotorLines{Forward: PWMLine{4, 2}, Reverse: PWMLine{4, 3}}
	return d
}

// Error is a configuration problem.  The robot refuses to start with one.
type Error struct {
	Section string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bad %s configuration: %v", e.Section, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load starts from the defaults and overlays the YAML file at path, if there
// is one.  The result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("Config: no", path, "using defaults")
	} else if err != nil {
		return cfg, &Error{Section: "file", Err: errors.Wrapf(err, "reading %s", path)}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Section: "file", Err: errors.Wrapf(err, "parsing %s", path)}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// InUsePath is where WriteInUse puts the effective config for path.
func InUsePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-in-use" + ext
}

// WriteInUse writes out the config we are actually running with, next to the
// file it was loaded from.
func (c *Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrap(ioutil.WriteFile(InUsePath(path), data, 0666), "writing in-use config")
}

func (c *Config) Validate() error {
	if c.Servo.Port == "" {
		return &Error{"servo", errors.New("no serial port")}
	}
	if c.Servo.BaudRate <= 0 {
		return &Error{"servo", errors.Errorf("bad baud rate %d", c.Servo.BaudRate)}
	}
	if c.Servo.ReadTimeout <= 0 {
		return &Error{"servo", errors.New("read timeout must be positive")}
	}
	if c.Servo.Speed < 0 || c.Servo.Speed > servobus.MaxSpeed {
		return &Error{"servo", errors.Errorf("speed %d not in [0, %d]", c.Servo.Speed, servobus.MaxSpeed)}
	}

	switch c.Drive.Backend {
	case "sysfs", "periph":
		if c.Drive.PeriodNS <= 0 {
			return &Error{"drive", errors.Errorf("bad PWM period %dns", c.Drive.PeriodNS)}
		}
	case "pca9685":
		if c.Drive.FrequencyHz <= 0 {
			return &Error{"drive", errors.Errorf("bad PWM frequency %dHz", c.Drive.FrequencyHz)}
		}
	case "dummy":
	default:
		return &Error{"drive", errors.Errorf("unknown backend %q", c.Drive.Backend)}
	}
	if c.Drive.ArcRatio <= 0 || c.Drive.ArcRatio > 1 {
		return &Error{"drive", errors.Errorf("arc ratio %v not in (0, 1]", c.Drive.ArcRatio)}
	}

	if c.Camera.FPS <= 0 {
		return &Error{"camera", errors.Errorf("bad frame rate %d", c.Camera.FPS)}
	}

	switch c.Detector.Backend {
	case "onnx", "colour":
	case "subprocess":
		if len(c.Detector.Command) == 0 {
			return &Error{"detector", errors.New("subprocess backend needs a command")}
		}
	default:
		return &Error{"detector", errors.Errorf("unknown backend %q", c.Detector.Backend)}
	}
	if c.Detector.ConfidenceThreshold <= 0 || c.Detector.ConfidenceThreshold >= 1 {
		return &Error{"detector", errors.Errorf("confidence threshold %v not in (0, 1)", c.Detector.ConfidenceThreshold)}
	}
	if c.Detector.MinArea < 0 || c.Detector.BallMinArea < 0 {
		return &Error{"detector", errors.New("minimum areas must not be negative")}
	}

	if c.Camera.Width > 0 && c.Navigation.FrameWidth != c.Camera.Width {
		return &Error{"navigation", errors.Errorf("frame width %d doesn't match camera width %d",
			c.Navigation.FrameWidth, c.Camera.Width)}
	}
	if err := c.Navigation.Validate(); err != nil {
		return &Error{"navigation", err}
	}

	for name, g := range c.Gestures {
		if len(g) == 0 {
			return &Error{"gestures", errors.Errorf("gesture %q is empty", name)}
		}
		for i, s := range g {
			if s.Angle < 0 || s.Angle > 360 || s.Hold < 0 {
				return &Error{"gestures", errors.Errorf("gesture %q step %d out of range", name, i)}
			}
		}
	}
	return nil
}
