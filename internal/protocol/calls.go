package protocol

// Outbound call names. Each call awaits exactly one structured
// success/failure response from the server.
const (
	CallSetUsername = "user:username"
	CallCreateRoom  = "room:create"
	CallJoinRoom    = "room:join"
	CallStartGame   = "game:start"
	CallChooseWord  = "word:choice"
)

// Outbound fire-and-forget message names.
const (
	MsgLeaveRoom = "room:leave"
	MsgGuessage  = "chat:guessage"
)

// UsernameRequest is the payload of a set-username call.
type UsernameRequest struct {
	Username string `json:"username"`
	PlayerID string `json:"playerId"`
}

// SimpleResponse is the server's answer to calls that carry no payload on
// success.
type SimpleResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RoomResponse is the server's answer to create-room and join-room calls.
// On success Room holds the full authoritative room snapshot.
type RoomResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Room    *Room  `json:"room,omitempty"`
}

// WordResponse is the server's answer to a choose-word call. On success
// Word is the confirmed plaintext word.
type WordResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Word    string `json:"word,omitempty"`
}
