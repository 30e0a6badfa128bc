// Package session persists the client's minimal durable identity: a
// stable participant id and, while a room membership is believed active,
// the {displayName, roomId} pair needed to rejoin after a reload.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	participantFile = "participant_id"
	sessionFile     = "session.json"
)

// Session is the persisted {displayName, roomId} pair.
type Session struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

// Store is a file-backed key/value store for the durable session state.
// It holds no logic beyond persistence; corrupted data reads as absent.
type Store struct {
	dir string
}

// NewStore creates the store directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ParticipantID returns the persisted participant identifier, generating
// and persisting a fresh one if absent. Idempotent across restarts.
func (s *Store) ParticipantID() (string, error) {
	path := filepath.Join(s.dir, participantFile)

	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
		log.Debug().Str("path", path).Msg("empty participant id file, regenerating")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read participant id: %w", err)
	}

	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("persist participant id: %w", err)
	}
	return id, nil
}

// Save persists the session pair. Called only after a server-confirmed
// join or create, never optimistically.
func (s *Store) Save(name, roomID string) error {
	data, err := json.Marshal(Session{Name: name, RoomID: roomID})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, sessionFile), data, 0o600); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load returns the persisted session, if any. Corrupted or unreadable
// data is treated as absent; Load never fails.
func (s *Store) Load() (Session, bool) {
	path := filepath.Join(s.dir, sessionFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug().Err(err).Str("path", path).Msg("unreadable session file, treating as absent")
		}
		return Session{}, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("corrupt session file, treating as absent")
		return Session{}, false
	}
	if sess.Name == "" || sess.RoomID == "" {
		return Session{}, false
	}
	return sess, true
}

// Clear erases the session pair. The participant id is never cleared.
func (s *Store) Clear() {
	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to clear session file")
	}
}
