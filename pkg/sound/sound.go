package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/tigerbot-team/tennisbot/pkg/config"
)

// Player plays WAV cues on a background goroutine.  A new cue cuts off the
// one that is playing.
type Player struct {
	dir          string
	cues         map[string]string
	soundsToPlay chan string
}

func New(cfg config.Sound) *Player {
	p := &Player{
		dir:          cfg.Dir,
		cues:         cfg.Cues,
		soundsToPlay: make(chan string),
	}
	if cfg.Enabled {
		go loopPlaying(p.soundsToPlay)
	} else {
		go func() {
			for s := range p.soundsToPlay {
				fmt.Println("Sound disabled, not playing", s)
			}
		}()
	}
	return p
}

func loopPlaying(soundsToPlay chan string) {
	defer func() {
		recover()
		for s := range soundsToPlay {
			fmt.Println("Unable to play", s)
		}
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("Failed to open speaker", err)
		for s := range soundsToPlay {
			fmt.Println("Unable to play", s)
		}
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			fmt.Println("Failed to open sound", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("Failed to decode sound", err)
			f.Close()
			s = nil
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}

// Play queues a WAV file.  It gives up quickly if the player is busy
// starting a previous sound, so the control loop never waits on audio.
func (p *Player) Play(path string) {
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case p.soundsToPlay <- path:
		return
	case <-time.After(10 * time.Millisecond):
		fmt.Println("Timed out trying to play sound: ", path)
	}
}

// Cue plays the sound configured for name, if there is one.
func (p *Player) Cue(name string) {
	file, ok := p.cues[name]
	if !ok {
		return
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(p.dir, file)
	}
	p.Play(file)
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}
