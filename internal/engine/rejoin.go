package engine

import (
	"context"

	"github.com/rs/zerolog/log"
)

// maybeRejoin kicks off the single-attempt rejoin protocol after a
// connection is established, if a persisted session hydrated the engine.
// Runs on the engine goroutine.
func (e *Engine) maybeRejoin() {
	r := e.replica
	if !r.Rejoining {
		return
	}
	if r.DisplayName == "" || r.RoomID == "" {
		next := r
		next.Rejoining = false
		e.replica = next
		return
	}

	log.Info().Str("room_id", r.RoomID).Msg("attempting to rejoin room")
	go e.attemptRejoin(r.DisplayName, r.RoomID)
}

// attemptRejoin re-announces the persisted identity and rejoins the
// persisted room. One attempt, no retry: any failure clears the session
// and leaves a clean un-joined state requiring manual action. While this
// runs, the replica keeps Rejoining true and every presentation cue is
// suppressed, since the replayed transitions are not new events.
func (e *Engine) attemptRejoin(name, roomID string) {
	ctx := context.Background()

	if res := e.setDisplayName(ctx, name); !res.OK {
		log.Warn().Str("reason", res.Reason).Msg("failed to restore display name")
		e.post(rejoinEnded{failed: true})
		return
	}

	if res := e.joinRoom(ctx, roomID, false); !res.OK {
		log.Warn().Str("room_id", roomID).Str("reason", res.Reason).Msg("failed to rejoin room, it may no longer exist")
		e.post(rejoinEnded{failed: true, clearRoom: true})
		return
	}

	e.post(rejoinEnded{})
}
