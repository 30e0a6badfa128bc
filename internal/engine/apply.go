package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/protocol"
	"github.com/doodleduel/client/internal/sfx"
)

// applyEvent reconciles one inbound push into the replica. It runs only
// on the engine goroutine; each case replaces the replica atomically.
func (e *Engine) applyEvent(ev protocol.Event) {
	payload, err := protocol.Decode(ev)
	if err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("malformed push dropped")
		return
	}
	if payload == nil {
		// Canvas/stroke traffic and unknown pushes belong to other layers.
		log.Debug().Str("event", string(ev.Type)).Msg("ignoring unhandled push")
		return
	}

	prev := e.replica
	next := prev

	switch p := payload.(type) {
	case protocol.ConnectedPayload:
		next.Status = StatusConnected
		next.SocketID = p.SocketID
		e.replica = next
		log.Info().Str("socket_id", p.SocketID).Msg("connection established")
		e.maybeRejoin()
		return

	case protocol.DisconnectedPayload:
		next.Status = StatusDisconnected
		next.SocketID = ""
		next.HasGuessed = false
		e.stopTimer()
		log.Info().Msg("connection lost")
		// Room and session survive; a later reconnect drives the rejoin.

	case protocol.ConnErrorPayload:
		log.Warn().Str("reason", p.Message).Msg("connection error")
		return

	case protocol.Room: // room:update
		next.Room = &p
		next.RoomID = p.ID
		next.Phase = p.Phase
		next.HasGuessed = deriveGuessed(&p, next.ParticipantID)
		if p.Phase == protocol.PhaseLobby {
			next.CurrentRound = 0
			// Defensive reset: a full room reset must not leave stale
			// word or timer state on screen.
			next.TimerRemaining = 0
			next.clearWordState()
			e.stopTimer()
		} else {
			next.CurrentRound = max(p.CurrentRound, 1)
		}

	case string: // user:joined / user:left carry a bare connection id
		if ev.Type != protocol.EventUserLeft {
			return // joins are reflected by the next room:update
		}
		if prev.Room == nil {
			return
		}
		if _, ok := prev.Room.Players[p]; !ok {
			return
		}
		room := *prev.Room
		room.Players = make(map[string]protocol.Player, len(prev.Room.Players)-1)
		for id, player := range prev.Room.Players {
			if id != p {
				room.Players[id] = player
			}
		}
		next.Room = &room

	case protocol.WordChoicesPayload:
		next.WordChoices = p.Words

	case protocol.WordMaskPayload:
		next.MaskedWord = p.MaskedWord
		next.Revealed = RevealedIndices(p.MaskedWord)
		if !next.IsArtist() {
			// Guessers never retain a stale plaintext word.
			next.CurrentWord = ""
		}

	case protocol.WordSelectedPayload:
		next.CurrentWord = p.Word
		next.Revealed = nil
		next.WordChoices = nil

	case protocol.TimerSyncPayload:
		next.TimerRemaining = p.Remaining
		next.Phase = p.Phase
		if p.Phase == protocol.PhaseLobby {
			next.CurrentRound = 0
		} else if next.CurrentRound == 0 {
			// A sync can outrun the first round:start.
			next.CurrentRound = 1
		}
		e.startTimer(p.Remaining)

	case protocol.RoundStartPayload:
		next.FinalStandings = nil
		next.CurrentRound = p.Round
		next.CurrentWord = ""
		next.MaskedWord = ""
		next.Revealed = nil
		next.HasGuessed = false
		if next.Phase == protocol.PhaseLobby {
			// A round always opens in word selection; the push can
			// arrive before the first timer sync says so.
			next.Phase = protocol.PhaseWordSelection
		}

	case protocol.RoundEndPayload:
		if !prev.Rejoining && missedTimeout(prev, e.clock.Now()) {
			e.cues.Play(sfx.CueTimeoutMissed)
		}
		next.CurrentWord = p.Word
		next.MaskedWord = ""
		next.Revealed = nil
		next.HasGuessed = false

	case protocol.GameEndPayload:
		e.stopTimer()
		next.TimerRemaining = 0
		next.Phase = protocol.PhaseLobby
		next.CurrentRound = 0
		next.clearWordState()
		next.FinalStandings = p.FinalStandings
		next.HasGuessed = false
		e.cue(sfx.CueGameEnd)

	case protocol.GuessCorrectPayload:
		if p.PlayerID != next.ParticipantID {
			return // only the local participant's own guess triggers anything
		}
		next.HasGuessed = true
		e.cue(sfx.CueCorrectGuess)

	default:
		log.Debug().Str("event", string(ev.Type)).Msg("ignoring unhandled push")
		return
	}

	e.replica = next

	if transition, ok := transitionCue(prev.Phase, next.Phase); ok && !prev.Rejoining {
		e.cues.Play(transition)
	}
}
