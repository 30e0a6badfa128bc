package engine

import (
	"github.com/doodleduel/client/internal/protocol"
	"github.com/doodleduel/client/internal/sfx"
)

// transitionCue maps a phase transition to its presentation cue. Only two
// transitions make a sound; everything else is silent.
func transitionCue(from, to protocol.Phase) (sfx.Cue, bool) {
	if from == to {
		return "", false
	}
	switch {
	case from == protocol.PhaseLobby && to == protocol.PhaseWordSelection:
		return sfx.CueGameStart, true
	case from == protocol.PhaseWordSelection && to == protocol.PhaseDrawing:
		return sfx.CueDrawingStart, true
	default:
		return "", false
	}
}
