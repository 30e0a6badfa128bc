package protocol

import (
	"encoding/json"
	"fmt"
)

// Event is the envelope for every inbound server push: an event name plus
// an event-specific JSON payload.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventType names an inbound push.
type EventType string

const (
	// Synthesized by the transport from connection lifecycle, not sent as
	// game traffic by the server.
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventConnError    EventType = "connect_error"

	EventRoomUpdate   EventType = "room:update"
	EventUserJoined   EventType = "user:joined"
	EventUserLeft     EventType = "user:left"
	EventWordChoices  EventType = "word:choice"
	EventWordMask     EventType = "word:mask"
	EventWordSelected EventType = "word:selected"
	EventTimerSync    EventType = "timer:sync"
	EventRoundStart   EventType = "round:start"
	EventRoundEnd     EventType = "round:end"
	EventGameEnd      EventType = "game:end"
	EventGuessCorrect EventType = "guess:correct"
)

// ConnectedPayload carries the session-scoped connection identifier the
// server assigned to this client.
type ConnectedPayload struct {
	SocketID string `json:"socketId"`
}

// DisconnectedPayload marks a lost connection. It carries no data.
type DisconnectedPayload struct{}

// ConnErrorPayload carries a transport-level error description.
type ConnErrorPayload struct {
	Message string `json:"message"`
}

// WordChoicesPayload offers candidate words to the current artist.
type WordChoicesPayload struct {
	Words []string `json:"words"`
}

// WordMaskPayload is the guesser-visible masked word.
type WordMaskPayload struct {
	MaskedWord string `json:"maskedWord"`
}

// WordSelectedPayload reveals the chosen word to the artist.
type WordSelectedPayload struct {
	Word string `json:"word"`
}

// TimerSyncPayload re-anchors the countdown and phase.
type TimerSyncPayload struct {
	Remaining int   `json:"remaining"` // milliseconds
	Phase     Phase `json:"phase"`
}

// RoundStartPayload announces a new round.
type RoundStartPayload struct {
	Round    int    `json:"round"`
	ArtistID string `json:"artistId"`
}

// RoundEndPayload reveals the word and the round's score changes.
type RoundEndPayload struct {
	Word   string         `json:"word"`
	Scores map[string]int `json:"scores"`
}

// GameEndPayload carries the final scoreboard.
type GameEndPayload struct {
	FinalStandings []FinalStanding `json:"finalStandings"`
}

// GuessCorrectPayload announces that a participant guessed the word.
type GuessCorrectPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// Decode parses an event's payload into its typed form. The result is one
// of the payload structs above, a Room for room:update, or a string for
// the events whose payload is a bare identifier. Unknown event types
// (canvas and stroke traffic belonging to the rendering layer) decode to
// (nil, nil) and are ignored upstream.
func Decode(ev Event) (any, error) {
	switch ev.Type {
	case EventConnected:
		return decodeAs[ConnectedPayload](ev)
	case EventDisconnected:
		return DisconnectedPayload{}, nil
	case EventConnError:
		return decodeAs[ConnErrorPayload](ev)
	case EventRoomUpdate:
		return decodeAs[Room](ev)
	case EventUserJoined, EventUserLeft:
		var id string
		if err := json.Unmarshal(ev.Data, &id); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return id, nil
	case EventWordChoices:
		return decodeAs[WordChoicesPayload](ev)
	case EventWordMask:
		return decodeAs[WordMaskPayload](ev)
	case EventWordSelected:
		return decodeAs[WordSelectedPayload](ev)
	case EventTimerSync:
		return decodeAs[TimerSyncPayload](ev)
	case EventRoundStart:
		return decodeAs[RoundStartPayload](ev)
	case EventRoundEnd:
		return decodeAs[RoundEndPayload](ev)
	case EventGameEnd:
		return decodeAs[GameEndPayload](ev)
	case EventGuessCorrect:
		return decodeAs[GuessCorrectPayload](ev)
	default:
		return nil, nil
	}
}

func decodeAs[T any](ev Event) (T, error) {
	var payload T
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	return payload, nil
}
