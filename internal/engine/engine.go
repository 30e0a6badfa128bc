// Package engine is the client-side reconciliation core: it folds the
// server's push stream and call responses into one consistent local
// replica of room/game/timer state, survives disconnects and reloads, and
// derives the presentation-facing values the rendering layer consumes.
package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/protocol"
	"github.com/doodleduel/client/internal/session"
	"github.com/doodleduel/client/internal/sfx"
	"github.com/doodleduel/client/internal/transport"
)

// DefaultCallTimeout bounds every outbound call.
const DefaultCallTimeout = 5 * time.Second

// message is the closed set of things the engine loop can be asked to
// apply besides inbound pushes. Everything that mutates the replica goes
// through the loop, so no two updates ever interleave.
type message interface{ isMessage() }

type snapshotReq struct{ reply chan Replica }

// nameCommitted commits a server-confirmed display name.
type nameCommitted struct{ name string }

// roomAdopted commits the room snapshot returned by a successful create,
// join, or rejoin call.
type roomAdopted struct {
	room    protocol.Room
	persist bool // save the session pair (not needed on rejoin)
}

// standingsCleared commits a successful start-game call.
type standingsCleared struct{}

// roomLeft resets local room state after a leave-room notice.
type roomLeft struct{}

// wordChosen commits the word confirmed by a choose-word call.
type wordChosen struct{ word string }

// rejoinEnded resolves the rejoin protocol one way or the other.
type rejoinEnded struct {
	failed    bool
	clearRoom bool
}

func (snapshotReq) isMessage()      {}
func (nameCommitted) isMessage()    {}
func (roomAdopted) isMessage()      {}
func (standingsCleared) isMessage() {}
func (roomLeft) isMessage()         {}
func (wordChosen) isMessage()       {}
func (rejoinEnded) isMessage()      {}

// Options tunes an Engine. Zero values select production defaults.
type Options struct {
	Clock       clockwork.Clock
	Cues        sfx.Player
	CallTimeout time.Duration
}

// Engine owns the local replica. All mutation happens on its Run
// goroutine; actions and snapshot reads are safe from any goroutine.
type Engine struct {
	ch       transport.Channel
	sessions *session.Store
	cues     sfx.Player
	clock    clockwork.Clock

	callTimeout time.Duration

	// participantID never changes for the process lifetime, so actions
	// may read it off-loop.
	participantID string

	inbox   chan message
	ticker  clockwork.Ticker
	replica Replica
}

// New builds an engine hydrated from the persisted session, if one
// exists. A persisted session puts the engine into its rejoining window
// until the rejoin protocol resolves.
func New(ch transport.Channel, sessions *session.Store, opts Options) (*Engine, error) {
	participantID, err := sessions.ParticipantID()
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cues := opts.Cues
	if cues == nil {
		cues = sfx.LogPlayer{}
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	e := &Engine{
		ch:          ch,
		sessions:    sessions,
		cues:        cues,
		clock:       clock,
		callTimeout: callTimeout,

		participantID: participantID,
		inbox:         make(chan message, 64),
		replica: Replica{
			Status:        StatusDisconnected,
			ParticipantID: participantID,
			Phase:         protocol.PhaseLobby,
		},
	}

	if sess, ok := sessions.Load(); ok {
		e.replica.DisplayName = sess.Name
		e.replica.RoomID = sess.RoomID
		e.replica.Rejoining = true
		log.Info().Str("room_id", sess.RoomID).Str("name", sess.Name).Msg("persisted session found, will rejoin on connect")
	}

	return e, nil
}

// Run drives the engine until ctx is cancelled or the transport closes.
// It is the single writer of the replica.
func (e *Engine) Run(ctx context.Context) {
	defer e.stopTimer()

	events := e.ch.Events()
	for {
		var tick <-chan time.Time
		if e.ticker != nil {
			tick = e.ticker.Chan()
		}

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				log.Info().Msg("transport closed, engine stopping")
				return
			}
			e.applyEvent(ev)
		case m := <-e.inbox:
			e.applyMessage(m)
		case <-tick:
			e.onTick()
		}
	}
}

// Snapshot returns a copy of the current replica.
func (e *Engine) Snapshot(ctx context.Context) (Replica, error) {
	reply := make(chan Replica, 1)
	select {
	case e.inbox <- snapshotReq{reply: reply}:
	case <-ctx.Done():
		return Replica{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return Replica{}, ctx.Err()
	}
}

// post queues a message for the engine loop.
func (e *Engine) post(m message) {
	e.inbox <- m
}

// applyMessage commits internal messages: call results and queries.
func (e *Engine) applyMessage(m message) {
	switch msg := m.(type) {
	case snapshotReq:
		msg.reply <- e.replica

	case nameCommitted:
		next := e.replica
		next.DisplayName = msg.name
		e.replica = next

	case roomAdopted:
		// A call result committed after the connection dropped would
		// resurrect state the next connect's rejoin should own.
		if e.replica.Status != StatusConnected {
			log.Warn().Str("room_id", msg.room.ID).Msg("discarding room result: connection lost since call was issued")
			return
		}
		next := e.replica
		next.adoptRoom(msg.room)
		e.replica = next

		if msg.persist && next.DisplayName != "" {
			if err := e.sessions.Save(next.DisplayName, next.RoomID); err != nil {
				log.Warn().Err(err).Msg("failed to persist session")
			}
		}

	case standingsCleared:
		next := e.replica
		next.FinalStandings = nil
		e.replica = next

	case roomLeft:
		wasJoined := e.replica.RoomID != "" || e.replica.Room != nil
		next := e.replica
		next.resetToLobby()
		e.replica = next
		e.stopTimer()
		e.sessions.Clear()
		if wasJoined {
			e.cue(sfx.CueLeaveRoom)
		}

	case wordChosen:
		next := e.replica
		next.CurrentWord = msg.word
		next.WordChoices = nil
		next.Revealed = nil
		next.HasGuessed = false
		e.replica = next

	case rejoinEnded:
		next := e.replica
		next.Rejoining = false
		if msg.clearRoom {
			next.Room = nil
			next.RoomID = ""
		}
		e.replica = next
		if msg.failed {
			e.sessions.Clear()
			log.Warn().Msg("rejoin failed, session cleared")
		} else {
			log.Info().Str("room_id", e.replica.RoomID).Msg("rejoined room")
		}
	}
}

// adoptRoom populates the replica from an authoritative room snapshot
// returned by a join or create call.
func (r *Replica) adoptRoom(room protocol.Room) {
	r.Room = &room
	r.RoomID = room.ID
	r.Phase = room.Phase
	if room.Phase == protocol.PhaseLobby {
		r.CurrentRound = 0
	} else {
		r.CurrentRound = max(room.CurrentRound, 1)
	}
	r.HasGuessed = deriveGuessed(&room, r.ParticipantID)
}

// cue forwards a presentation trigger unless the engine is replaying
// prior state during rejoin.
func (e *Engine) cue(c sfx.Cue) {
	if e.replica.Rejoining {
		return
	}
	e.cues.Play(c)
}
