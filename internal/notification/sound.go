package notification

import (
	"context"
	"log"
	"os/exec"
	"sync/atomic"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// SoundNotifier plays an alert sound through an external player binary.
// There is a single audio channel: a new play request while a previous one
// is still audible is dropped, not queued. The suppression is advisory
// only; console alerts still repeat.
type SoundNotifier struct {
	player string
	file   string
	busy   atomic.Bool
}

// NewSoundNotifier creates the audio channel. player is the playback
// binary (e.g. "mpg123", "afplay"), file the sound to play.
func NewSoundNotifier(player, file string) *SoundNotifier {
	return &SoundNotifier{player: player, file: file}
}

func (n *SoundNotifier) Name() string { return "sound" }

// Send starts playback in the background and returns immediately.
func (n *SoundNotifier) Send(ctx context.Context, sig model.Signal) error {
	if !n.busy.CompareAndSwap(false, true) {
		return nil // previous cue still playing
	}
	cmd := exec.Command(n.player, n.file)
	if err := cmd.Start(); err != nil {
		n.busy.Store(false)
		log.Printf("[notify] audio playback failed to start: %v", err)
		return nil // audio is best-effort, never fail the alert
	}
	go func() {
		_ = cmd.Wait()
		n.busy.Store(false)
	}()
	return nil
}

// Busy reports whether a cue is currently playing.
func (n *SoundNotifier) Busy() bool {
	return n.busy.Load()
}
