package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/doodleduel/client/internal/protocol"
	"github.com/doodleduel/client/internal/session"
	"github.com/doodleduel/client/internal/sfx"
	"github.com/doodleduel/client/internal/transport"
)

// fakeChannel scripts call responses and lets tests inject pushes.
type fakeChannel struct {
	mu        sync.Mutex
	connected bool
	blockCall bool
	responses map[string][]json.RawMessage
	calls     []string
	sent      []string
	events    chan protocol.Event
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		connected: true,
		responses: make(map[string][]json.RawMessage),
		events:    make(chan protocol.Event, 16),
	}
}

func (f *fakeChannel) Connect(ctx context.Context) error { return nil }
func (f *fakeChannel) Close() error                      { close(f.events); return nil }

func (f *fakeChannel) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeChannel) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *fakeChannel) WaitConnected(ctx context.Context) error {
	if f.Connected() {
		return nil
	}
	<-ctx.Done()
	return transport.ErrNotConnected
}

func (f *fakeChannel) Send(name string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	f.sent = append(f.sent, name)
	return nil
}

func (f *fakeChannel) Call(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	if f.blockCall {
		f.mu.Unlock()
		<-ctx.Done()
		return nil, transport.ErrCallTimeout
	}
	queued := f.responses[name]
	if len(queued) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("no scripted response for %s", name)
	}
	raw := queued[0]
	f.responses[name] = queued[1:]
	f.mu.Unlock()
	return raw, nil
}

func (f *fakeChannel) Events() <-chan protocol.Event { return f.events }

// respond queues one scripted response for a call name.
func (f *fakeChannel) respond(t *testing.T, name string, resp any) {
	t.Helper()
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	f.mu.Lock()
	f.responses[name] = append(f.responses[name], raw)
	f.mu.Unlock()
}

func (f *fakeChannel) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeChannel) sentNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// cueRecorder captures fired presentation cues.
type cueRecorder struct {
	mu   sync.Mutex
	cues []sfx.Cue
}

func (r *cueRecorder) Play(c sfx.Cue) {
	r.mu.Lock()
	r.cues = append(r.cues, c)
	r.mu.Unlock()
}

func (r *cueRecorder) fired() []sfx.Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sfx.Cue(nil), r.cues...)
}

type harness struct {
	e     *Engine
	ch    *fakeChannel
	cues  *cueRecorder
	clock *clockwork.FakeClock
	store *session.Store
	dir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return newHarnessAt(t, dir)
}

func newHarnessAt(t *testing.T, dir string) *harness {
	t.Helper()
	store, err := session.NewStore(dir)
	require.NoError(t, err)

	ch := newFakeChannel()
	cues := &cueRecorder{}
	clock := clockwork.NewFakeClock()

	e, err := New(ch, store, Options{
		Clock:       clock,
		Cues:        cues,
		CallTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	return &harness{e: e, ch: ch, cues: cues, clock: clock, store: store, dir: dir}
}

// run starts the engine loop and stops it at test cleanup.
func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.e.Run(ctx)
}

// push injects an inbound event through the fake channel.
func (h *harness) push(t *testing.T, typ protocol.EventType, payload any) {
	t.Helper()
	h.ch.events <- event(t, typ, payload)
}

// snapshot reads the replica while the engine loop is running.
func (h *harness) snapshot(t *testing.T) Replica {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := h.e.Snapshot(ctx)
	require.NoError(t, err)
	return snap
}

func event(t *testing.T, typ protocol.EventType, payload any) protocol.Event {
	t.Helper()
	ev := protocol.Event{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		ev.Data = raw
	}
	return ev
}

// seedParticipantID fixes the stored participant id before the engine is
// constructed, so scripted room snapshots can reference it.
func seedParticipantID(t *testing.T, dir, id string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "participant_id"), []byte(id+"\n"), 0o600))
}

// testRoom builds a plausible room snapshot.
func testRoom(id string, phase protocol.Phase, round int) protocol.Room {
	return protocol.Room{
		ID:      id,
		Creator: "sock-creator",
		Config: protocol.RoomConfig{
			MaxPlayers:        8,
			WordSelectionSize: 3,
			WordChoiceTimer:   15,
			DrawTimer:         60,
			NumberOfRounds:    3,
		},
		Players:      map[string]protocol.Player{},
		DrawingState: protocol.DrawingState{},
		Phase:        phase,
		CurrentRound: round,
	}
}

// requireInvariants asserts the cross-field invariants that must hold
// after every applied event.
func requireInvariants(t *testing.T, r Replica) {
	t.Helper()
	if r.Phase == protocol.PhaseLobby {
		require.Zero(t, r.CurrentRound, "round must be 0 in lobby")
	} else {
		require.NotZero(t, r.CurrentRound, "round must be nonzero outside lobby")
	}
	if r.MaskedWord != "" {
		require.Equal(t, RevealedIndices(r.MaskedWord), r.Revealed)
	}
	require.GreaterOrEqual(t, r.TimerRemaining, 0)
}
