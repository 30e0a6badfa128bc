package engine

import (
	"time"

	"github.com/doodleduel/client/internal/protocol"
)

// maskBlank is the placeholder character for unrevealed letters.
const maskBlank = '_'

// timeoutGrace is how close to the configured draw timer a round end must
// land to count as a timeout rather than an early finish by the artist.
const timeoutGrace = 500 * time.Millisecond

// RevealedIndices returns the character positions of a masked word that
// are already exposed, i.e. neither the blank marker nor a space.
func RevealedIndices(masked string) []int {
	var indices []int
	for i, ch := range []rune(masked) {
		if ch != maskBlank && ch != ' ' {
			indices = append(indices, i)
		}
	}
	return indices
}

// guessedThisRound reports whether the participant appears in the room's
// authoritative correctly-guessed list.
func guessedThisRound(room *protocol.Room, participantID string) bool {
	if room == nil {
		return false
	}
	for _, p := range room.DrawingState.CorrectlyGuessed {
		if p.PlayerID == participantID {
			return true
		}
	}
	return false
}

// deriveGuessed computes hasGuessedThisRound from a room snapshot: only
// meaningful mid-drawing, false in every other phase.
func deriveGuessed(room *protocol.Room, participantID string) bool {
	if room == nil || room.Phase != protocol.PhaseDrawing {
		return false
	}
	return guessedThisRound(room, participantID)
}

// missedTimeout decides, from pre-clear state at round end, whether the
// local participant genuinely ran out of time: not the artist, no correct
// guess, and the drawing phase consumed (to within the grace window) its
// full configured duration.
func missedTimeout(r Replica, now time.Time) bool {
	if r.Room == nil || r.IsArtist() || r.HasGuessed {
		return false
	}
	startedAt := r.Room.DrawingState.StartedAt
	if startedAt == nil {
		return false
	}

	elapsed := now.Sub(time.UnixMilli(*startedAt))
	drawTimer := time.Duration(r.Room.Config.DrawTimer) * time.Second
	if drawTimer <= 0 {
		return false
	}
	return elapsed >= drawTimer-timeoutGrace
}
