package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tennisbot/pkg/gripper"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "tennisbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestOverlay(t *testing.T) {
	path := writeConfig(t, `
servo:
  port: /dev/ttyS2
  baudrate: 1000000
drive:
  backend: pca9685
navigation:
  debouncethreshold: 5
  targetwindow:
    center: 320
    width: 100
  release:
    backoffduration: 1500ms
gestures:
  release:
  - servo: 4
    angle: 210
    hold: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS2", cfg.Servo.Port)
	assert.Equal(t, 1000000, cfg.Servo.BaudRate)
	assert.Equal(t, "pca9685", cfg.Drive.Backend)
	assert.Equal(t, 5, cfg.Navigation.DebounceThreshold)
	assert.Equal(t, 320, cfg.Navigation.TargetWindow.Center)
	assert.Equal(t, 1500*time.Millisecond, cfg.Navigation.Release.BackoffDuration)
	// Untouched values keep their defaults.
	assert.Equal(t, 365, cfg.Navigation.WNear)
	assert.Equal(t, 2*time.Second, cfg.Navigation.SettleAfterGrab)
	assert.Equal(t, gripper.Gesture{{Servo: 4, Angle: 210, Hold: 250 * time.Millisecond}}, cfg.Gestures[gripper.Release])
}

func TestInvalidConfigIsAnError(t *testing.T) {
	path := writeConfig(t, `
navigation:
  debouncethreshold: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "navigation", cfgErr.Section)
}

func TestBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "servo: [1, 2"))
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "file", cfgErr.Section)
}

func TestValidateRejects(t *testing.T) {
	bad := map[string]func(c *Config){
		"baud":      func(c *Config) { c.Servo.BaudRate = 0 },
		"backend":   func(c *Config) { c.Drive.Backend = "steam" },
		"arc":       func(c *Config) { c.Drive.ArcRatio = 1.5 },
		"detector":  func(c *Config) { c.Detector.Backend = "magic" },
		"command":   func(c *Config) { c.Detector.Backend = "subprocess"; c.Detector.Command = nil },
		"width":     func(c *Config) { c.Camera.Width = 320 },
		"gesture":   func(c *Config) { c.Gestures = map[string]gripper.Gesture{"grab": {}} },
		"servo-spd": func(c *Config) { c.Servo.Speed = 1000 },
		"ball-area": func(c *Config) { c.Detector.BallMinArea = -1 },
	}
	for name, mutate := range bad {
		cfg := Defaults()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestBallMinAreaOverlay(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 500.0, cfg.Detector.BallMinArea)
	assert.Equal(t, 5000.0, cfg.Detector.MinArea)

	cfg, err := Load(writeConfig(t, "detector:\n  ballminarea: 80\n"))
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Detector.BallMinArea)
	assert.Equal(t, 5000.0, cfg.Detector.MinArea)
}

func TestWriteInUse(t *testing.T) {
	path := writeConfig(t, "camera:\n  fps: 10\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.WriteInUse(path))

	assert.Equal(t, filepath.Join(filepath.Dir(path), "tennisbot-in-use.yaml"), InUsePath(path))
	again, err := Load(InUsePath(path))
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Errorf("in-use config differs (-loaded +reloaded):\n%s", diff)
	}
}
