package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tigerbot-team/tennisbot/pkg/config"
	"github.com/tigerbot-team/tennisbot/pkg/drive"
	"github.com/tigerbot-team/tennisbot/pkg/hardware"
)

var kinds = map[string]drive.Kind{
	"f": drive.Forward,
	"b": drive.Backward,
	"l": drive.TurnLeft,
	"r": drive.TurnRight,
	"pl": drive.PivotLeft,
	"pr": drive.PivotRight,
	"x": drive.Brake,
	"c": drive.Coast,
}

func main() {
	cfgPath := config.DefaultPath
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	hw, err := hardware.New(cfg)
	if err != nil {
		fmt.Println("Failed to open hardware:", err)
		os.Exit(1)
	}
	defer hw.Shutdown()
	d := hw.Drive()

	fmt.Println(
		`Commands:
    f|b|l|r|pl|pr <speed> [<ms>]   # Forward, backward, turn, pivot
    x                              # Brake
    c                              # Coast
    m <left> <right>               # Raw motor speeds
    q                              # Quit

<speed>  0-255
<ms>     Coast after this long; runs until the next command if omitted`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "q" {
			return
		}
		if parts[0] == "m" {
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			l, err1 := strconv.Atoi(parts[1])
			r, err2 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil {
				fmt.Println("Expected ints")
				continue
			}
			if err := d.SetSpeeds(drive.Clamp(l), drive.Clamp(r)); err != nil {
				fmt.Println("Failed to set speeds: ", err)
			}
			continue
		}

		kind, ok := kinds[parts[0]]
		if !ok {
			fmt.Println("Unknown command", parts[0])
			continue
		}
		speed := 0
		if len(parts) > 1 {
			speed, err = strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
		}
		intent := drive.NewIntent(kind, speed)
		fmt.Println("Applying", intent)
		if err := d.Apply(intent); err != nil {
			fmt.Println("Failed to apply intent: ", err)
			continue
		}
		if len(parts) > 2 {
			ms, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Println("Expected int, not ", parts[2])
				continue
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
			if err := d.Coast(); err != nil {
				fmt.Println("Failed to coast: ", err)
			}
		}
	}
}
