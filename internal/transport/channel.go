// Package transport provides the bidirectional named-message channel the
// reconciliation engine runs on: fire-and-forget sends, calls that await
// exactly one structured response, and a stream of inbound push events.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/doodleduel/client/internal/protocol"
)

var (
	// ErrNotConnected is returned when a send or call is attempted while
	// the channel has no live connection.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrCallTimeout is returned when no response arrived within the
	// caller's deadline. A response arriving later is dropped.
	ErrCallTimeout = errors.New("transport: call timed out")

	// ErrDisconnected is returned when the connection was lost while a
	// call was outstanding. Responses never cross a connection boundary.
	ErrDisconnected = errors.New("transport: connection lost before response")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("transport: closed")
)

// Channel is a persistent, automatically-reconnecting connection to the
// game authority.
type Channel interface {
	// Connect establishes the initial connection. After a successful
	// Connect the channel redials on its own until Close is called.
	Connect(ctx context.Context) error

	// Close tears the channel down permanently and closes Events.
	Close() error

	// Connected reports whether a connection is currently live.
	Connected() bool

	// WaitConnected blocks until the channel is connected or ctx ends.
	WaitConnected(ctx context.Context) error

	// Send emits a fire-and-forget message.
	Send(name string, payload any) error

	// Call emits a message and awaits exactly one structured response.
	// The response resolves at most once; ctx bounds the wait.
	Call(ctx context.Context, name string, payload any) (json.RawMessage, error)

	// Events delivers inbound pushes, including the connection lifecycle
	// events, in arrival order. Closed by Close.
	Events() <-chan protocol.Event
}
