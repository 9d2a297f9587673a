package vision

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kr/pty"
	"gocv.io/x/gocv"

	"github.com/tigerbot-team/tennisbot/pkg/detect"
	"github.com/tigerbot-team/tennisbot/pkg/navigation"
)

// SubprocessDetector hands frames to a helper process, for inference
// runtimes (like the RK3588 NPU) that only have Python bindings.  Each frame
// goes over as a JPEG file; the helper answers with a RESULT line.  The
// helper runs on a pty so its output is line buffered.
type SubprocessDetector struct {
	Command []string

	// Internals.
	subProcess *exec.Cmd
	tty        *os.File
	subOutput  *bufio.Scanner
	frameFile  string
}

func NewSubprocessDetector(command []string) *SubprocessDetector {
	return &SubprocessDetector{
		Command: command,
	}
}

func (d *SubprocessDetector) Name() string {
	return "subprocess"
}

func (d *SubprocessDetector) Start() (err error) {
	if len(d.Command) == 0 {
		return errors.New("no detector command")
	}
	dir, err := os.MkdirTemp("", "tennisbot-frames")
	if err != nil {
		return fmt.Errorf("couldn't make frame directory: %w", err)
	}
	d.frameFile = filepath.Join(dir, "frame.jpg")

	d.subProcess = exec.Command(d.Command[0], d.Command[1:]...)
	d.tty, err = pty.Start(d.subProcess)
	if err != nil {
		return fmt.Errorf("couldn't start detector subprocess: %w", err)
	}
	d.subOutput = bufio.NewScanner(d.tty)
	fmt.Println("Detector subprocess started:", d.Command)
	return nil
}

// Execute sends one request line and waits for the result line.  Anything
// else the helper prints (including the pty's echo of the request) is
// logged and skipped.
func (d *SubprocessDetector) Execute(req string) ([]navigation.BoundingBox, error) {
	if _, err := io.WriteString(d.tty, req+"\n"); err != nil {
		return nil, fmt.Errorf("couldn't write to subprocess: %w", err)
	}
	for d.subOutput.Scan() {
		line := d.subOutput.Text()
		boxes, ok, err := detect.ParseResult(line)
		if !ok {
			fmt.Println("Detector >>", line)
			continue
		}
		return boxes, err
	}
	if err := d.subOutput.Err(); err != nil {
		return nil, fmt.Errorf("error from subprocess: %w", err)
	}
	return nil, errors.New("subprocess terminated")
}

func (d *SubprocessDetector) Detect(frame gocv.Mat) ([]navigation.BoundingBox, error) {
	if !gocv.IMWrite(d.frameFile, frame) {
		return nil, fmt.Errorf("couldn't write frame to %s", d.frameFile)
	}
	return d.Execute("detect " + d.frameFile)
}

func (d *SubprocessDetector) Close() error {
	if d.subProcess == nil {
		return nil
	}
	_, _ = io.WriteString(d.tty, "quit\n")
	_ = d.tty.Close()
	if d.subProcess.Process != nil {
		_ = d.subProcess.Process.Kill()
	}
	_ = d.subProcess.Wait()
	_ = os.RemoveAll(filepath.Dir(d.frameFile))
	return nil
}
