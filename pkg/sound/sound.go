// Package sound plays the job cues through the speaker.
package sound

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/vart-team/vart/go-controller/pkg/logging"
)

const sampleRate = beep.SampleRate(44100)

// InitSound starts the player goroutine and returns the channel it reads
// WAV file paths from. A new sound cuts off the one playing. If the speaker
// can't be opened the paths are logged and dropped.
func InitSound() chan string {
	log := logging.For("sound")
	soundsToPlay := make(chan string)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Sound player crashed")
			}
			for s := range soundsToPlay {
				log.WithField("path", s).Warn("Unable to play")
			}
		}()
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
			log.WithError(err).Warn("Failed to open speaker")
			return
		}

		var ctrl *beep.Ctrl
		var s beep.StreamSeekCloser
		for path := range soundsToPlay {
			if ctrl != nil {
				speaker.Lock()
				ctrl.Paused = true
				ctrl.Streamer = nil
				speaker.Unlock()
				ctrl = nil
			}
			if s != nil {
				_ = s.Close()
				s = nil
			}

			var err error
			s, err = open(path)
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("Failed to load sound")
				continue
			}
			ctrl = &beep.Ctrl{Streamer: s}
			speaker.Play(ctrl)
		}
	}()
	return soundsToPlay
}

func open(path string) (beep.StreamSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if format.SampleRate != sampleRate {
		logging.For("sound").WithField("path", path).
			WithField("rate", format.SampleRate).Debug("Sample rate differs from speaker")
	}
	return s, nil
}
