package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/protocol"
)

// Result is the outcome of an action: success, or a failure with an
// optional human-readable reason. Actions never fail any harder than
// this; the replica is left in a previously-valid state either way.
type Result struct {
	OK     bool
	Reason string
}

func failure(reason string) Result { return Result{Reason: reason} }

// call issues one bounded request over the channel and decodes its
// response. Every action shares this helper; on timeout it resolves
// failure locally and any late response is discarded by the transport.
func (e *Engine) call(ctx context.Context, name string, payload any, out any) error {
	cctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	raw, err := e.ch.Call(cctx, name, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

// SetDisplayName announces the display name to the server and commits it
// locally only once the server confirms. If the channel is down it first
// waits (bounded) for a connection.
func (e *Engine) SetDisplayName(ctx context.Context, name string) Result {
	return e.setDisplayName(ctx, name)
}

func (e *Engine) setDisplayName(ctx context.Context, name string) Result {
	wctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	if err := e.ch.WaitConnected(wctx); err != nil {
		log.Warn().Err(err).Msg("set display name: no connection")
		return failure("not connected")
	}

	var resp protocol.SimpleResponse
	req := protocol.UsernameRequest{Username: name, PlayerID: e.participantID}
	if err := e.call(ctx, protocol.CallSetUsername, req, &resp); err != nil {
		log.Warn().Err(err).Msg("set display name failed")
		return failure(err.Error())
	}
	if !resp.Success {
		log.Warn().Str("reason", resp.Error).Msg("set display name rejected")
		return failure(resp.Error)
	}

	e.post(nameCommitted{name: name})
	return Result{OK: true}
}

// CreateRoom asks the server for a new room and adopts the returned
// snapshot. The session pair is persisted if a display name is set.
func (e *Engine) CreateRoom(ctx context.Context, opts protocol.RoomOptions) Result {
	var resp protocol.RoomResponse
	if err := e.call(ctx, protocol.CallCreateRoom, opts, &resp); err != nil {
		log.Warn().Err(err).Msg("create room failed")
		return failure(err.Error())
	}
	if !resp.Success || resp.Room == nil {
		log.Warn().Str("reason", resp.Error).Msg("create room rejected")
		return failure(resp.Error)
	}

	e.post(roomAdopted{room: *resp.Room, persist: true})
	return Result{OK: true}
}

// JoinRoom joins an existing room and adopts the returned snapshot.
func (e *Engine) JoinRoom(ctx context.Context, roomID string) Result {
	return e.joinRoom(ctx, roomID, true)
}

func (e *Engine) joinRoom(ctx context.Context, roomID string, persist bool) Result {
	var resp protocol.RoomResponse
	if err := e.call(ctx, protocol.CallJoinRoom, roomID, &resp); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("join room failed")
		return failure(err.Error())
	}
	if !resp.Success || resp.Room == nil {
		log.Warn().Str("room_id", roomID).Str("reason", resp.Error).Msg("join room rejected")
		return failure(resp.Error)
	}

	e.post(roomAdopted{room: *resp.Room, persist: persist})
	return Result{OK: true}
}

// StartGame asks the server to start the game in the joined room. The
// first round:start push will populate round and word state; locally only
// stale final standings are cleared.
func (e *Engine) StartGame(ctx context.Context) Result {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return failure(err.Error())
	}
	if snap.RoomID == "" {
		return failure("no room joined")
	}

	var resp protocol.SimpleResponse
	if err := e.call(ctx, protocol.CallStartGame, snap.RoomID, &resp); err != nil {
		log.Warn().Err(err).Msg("start game failed")
		return failure(err.Error())
	}
	if !resp.Success {
		log.Warn().Str("reason", resp.Error).Msg("start game rejected")
		return failure(resp.Error)
	}

	e.post(standingsCleared{})
	return Result{OK: true}
}

// LeaveRoom sends a fire-and-forget departure notice and resets all local
// room state to lobby defaults, clearing the persisted session.
func (e *Engine) LeaveRoom() {
	if err := e.ch.Send(protocol.MsgLeaveRoom, nil); err != nil {
		log.Debug().Err(err).Msg("leave room notice not sent")
	}
	e.post(roomLeft{})
}

// SendGuess emits a chat/guess message. No local state changes; whether
// the guess was correct arrives later as a guess:correct push.
func (e *Engine) SendGuess(text string) error {
	g := protocol.Guessage{
		PlayerID:  e.participantID,
		Guessage:  text,
		Timestamp: e.clock.Now().UTC().Format(time.RFC3339),
	}
	return e.ch.Send(protocol.MsgGuessage, g)
}

// ChooseWord commits the artist's word choice once the server confirms.
func (e *Engine) ChooseWord(ctx context.Context, word string) Result {
	var resp protocol.WordResponse
	if err := e.call(ctx, protocol.CallChooseWord, word, &resp); err != nil {
		log.Warn().Err(err).Msg("choose word failed")
		return failure(err.Error())
	}
	if !resp.Success {
		log.Warn().Str("reason", resp.Error).Msg("choose word rejected")
		return failure(resp.Error)
	}

	e.post(wordChosen{word: resp.Word})
	return Result{OK: true}
}
