// Package sfx defines the presentation cues the engine can trigger and a
// pluggable player for them. Actual audio playback belongs to the
// presentation layer; the default player only logs.
package sfx

import "github.com/rs/zerolog/log"

// Cue identifies one presentation trigger.
type Cue string

const (
	CueGameStart     Cue = "gameStart"     // lobby -> word-selection
	CueDrawingStart  Cue = "drawingStart"  // word-selection -> drawing
	CueTimeoutMissed Cue = "timeoutMissed" // round ended on the clock without a correct guess
	CueCorrectGuess  Cue = "correctGuess"  // local participant guessed correctly
	CueGameEnd       Cue = "gameEnd"
	CueLeaveRoom     Cue = "leaveRoom"
)

// MasterVolume scales every cue's own volume.
const MasterVolume = 0.2

// Config describes one cue's asset and relative volume.
type Config struct {
	Source string
	Volume float64
}

// Table maps each cue to its playback configuration.
var Table = map[Cue]Config{
	CueGameStart:     {Source: "sfx/game-start.mp3", Volume: 0.2},
	CueDrawingStart:  {Source: "sfx/drawing-start.mp3", Volume: 0.2},
	CueTimeoutMissed: {Source: "sfx/timeout-missed.mp3", Volume: 0.2},
	CueCorrectGuess:  {Source: "sfx/correct-guess.mp3", Volume: 0.1},
	CueGameEnd:       {Source: "sfx/game-end.mp3", Volume: 0.2},
	CueLeaveRoom:     {Source: "sfx/leave-room.mp3", Volume: 0.1},
}

// Player receives cues as they fire. Implementations must be fast and
// must never feed state back into the engine.
type Player interface {
	Play(cue Cue)
}

// LogPlayer is the default Player; it records cues in the log.
type LogPlayer struct{}

func (LogPlayer) Play(cue Cue) {
	cfg := Table[cue]
	log.Debug().
		Str("cue", string(cue)).
		Str("source", cfg.Source).
		Float64("volume", clampVolume(MasterVolume*cfg.Volume)).
		Msg("presentation cue")
}

func clampVolume(v float64) float64 {
	return max(0, min(1, v))
}
