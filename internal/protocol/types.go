package protocol

// Phase represents the room's game phase as reported by the server.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseWordSelection Phase = "word-selection"
	PhaseDrawing       Phase = "drawing"
	PhaseRoundEnd      Phase = "round-end"
)

// RoomConfig is the authoritative room configuration.
type RoomConfig struct {
	IsPrivate         bool `json:"isPrivate"`
	MaxPlayers        int  `json:"maxPlayers"`
	WordSelectionSize int  `json:"wordSelectionSize"` // 3 or 5
	WordChoiceTimer   int  `json:"wordChoiceTimer"`   // seconds
	DrawTimer         int  `json:"drawTimer"`         // seconds
	NumberOfRounds    int  `json:"numberOfRounds"`
}

// RoomOptions is the partial configuration sent with a create-room call.
// Omitted fields take server-side defaults.
type RoomOptions struct {
	IsPrivate         *bool `json:"isPrivate,omitempty"`
	MaxPlayers        *int  `json:"maxPlayers,omitempty"`
	WordSelectionSize *int  `json:"wordSelectionSize,omitempty"`
	WordChoiceTimer   *int  `json:"wordChoiceTimer,omitempty"`
	DrawTimer         *int  `json:"drawTimer,omitempty"`
	NumberOfRounds    *int  `json:"numberOfRounds,omitempty"`
}

// Player is one participant in a room. ID is the connection-scoped
// identifier; PlayerID is the stable per-browser participant identifier.
type Player struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Guessage is a chat/guess message. The server decides whether it was a
// correct guess; clients only ever see the message itself.
type Guessage struct {
	PlayerID  string `json:"playerId"`
	Guessage  string `json:"guessage"`
	Timestamp string `json:"timestamp"`
}

// FinalStanding is one row of the end-of-game scoreboard.
type FinalStanding struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Point is an [x, y] canvas coordinate.
type Point [2]float64

// Stroke is a drawn canvas stroke. Strokes are opaque to the
// reconciliation engine and only carried for the rendering layer.
type Stroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// DrawingState is the per-round drawing sub-state of a room.
type DrawingState struct {
	CurrentArtist    *string  `json:"currentArtist"`
	CorrectlyGuessed []Player `json:"correctlyGuessed"`
	StartedAt        *int64   `json:"startedAt"` // unix millis, set when drawing begins
	CompletedStrokes []Stroke `json:"completedStrokes"`
	ActiveStroke     *Stroke  `json:"activeStroke"`
}

// Room is the full authoritative room object. Snapshots of it are
// wholesale-replaced on every room:update push.
type Room struct {
	ID           string            `json:"id"`
	Creator      string            `json:"creator"`
	Config       RoomConfig        `json:"config"`
	Players      map[string]Player `json:"players"`
	Guessages    []Guessage        `json:"guessages"`
	DrawingState DrawingState      `json:"drawingState"`
	Phase        Phase             `json:"phase"`
	CurrentRound int               `json:"currentRound"`
}
