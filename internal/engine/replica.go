package engine

import (
	"github.com/doodleduel/client/internal/protocol"
)

// ConnectionStatus is the transport lifecycle state.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnected    ConnectionStatus = "connected"
)

// Replica is the client's single local view of authoritative game state.
// The engine goroutine owns the only live copy and replaces it wholesale
// on every applied event; everything handed out is a value copy.
type Replica struct {
	Status        ConnectionStatus `json:"status"`
	SocketID      string           `json:"socketId,omitempty"`
	ParticipantID string           `json:"participantId"`
	DisplayName   string           `json:"displayName,omitempty"`

	Room   *protocol.Room `json:"room,omitempty"`
	RoomID string         `json:"roomId,omitempty"`

	Phase          protocol.Phase           `json:"phase"`
	CurrentRound   int                      `json:"currentRound"`
	TimerRemaining int                      `json:"timerRemaining"` // milliseconds, display-only
	WordChoices    []string                 `json:"wordChoices,omitempty"`
	CurrentWord    string                   `json:"currentWord,omitempty"`
	MaskedWord     string                   `json:"maskedWord,omitempty"`
	Revealed       []int                    `json:"revealedIndices,omitempty"`
	FinalStandings []protocol.FinalStanding `json:"finalStandings,omitempty"`
	HasGuessed     bool                     `json:"hasGuessed"`
	Rejoining      bool                     `json:"rejoining"`
}

// IsArtist reports whether the local participant is the current artist.
func (r Replica) IsArtist() bool {
	if r.Room == nil || r.Room.DrawingState.CurrentArtist == nil {
		return false
	}
	return *r.Room.DrawingState.CurrentArtist == r.ParticipantID
}

// IsCreator reports whether this connection created the room.
func (r Replica) IsCreator() bool {
	return r.Room != nil && r.SocketID != "" && r.Room.Creator == r.SocketID
}

// Players lists the room's participants, or nil outside a room.
func (r Replica) Players() []protocol.Player {
	if r.Room == nil {
		return nil
	}
	players := make([]protocol.Player, 0, len(r.Room.Players))
	for _, p := range r.Room.Players {
		players = append(players, p)
	}
	return players
}

// Messages returns the room's chat/guess log, or nil outside a room.
func (r Replica) Messages() []protocol.Guessage {
	if r.Room == nil {
		return nil
	}
	return r.Room.Guessages
}

// DisplayWord is the word the presentation layer should show. The
// plaintext word always suppresses the mask: the artist sees the truth.
func (r Replica) DisplayWord() string {
	if r.CurrentWord != "" {
		return r.CurrentWord
	}
	return r.MaskedWord
}

// clearWordState drops every per-round word artifact.
func (r *Replica) clearWordState() {
	r.CurrentWord = ""
	r.MaskedWord = ""
	r.Revealed = nil
	r.WordChoices = nil
}

// resetToLobby drops all room and game sub-state back to lobby defaults.
func (r *Replica) resetToLobby() {
	r.Room = nil
	r.RoomID = ""
	r.Phase = protocol.PhaseLobby
	r.CurrentRound = 0
	r.TimerRemaining = 0
	r.FinalStandings = nil
	r.HasGuessed = false
	r.clearWordState()
}
