// Package session keeps per-visitor state (cart, flash messages, placed orders) behind an
// opaque cookie. Data lives in a Store: Redis in production, memory for local runs and tests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

type Store interface {
	Load(ctx context.Context, id string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, id string, data map[string]json.RawMessage, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const flashKey = "_flashes"

type Session struct {
	id      string
	oldID   string
	data    map[string]json.RawMessage
	changed bool
}

func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// New returns an empty session with a fresh random id.
func New() *Session {
	return &Session{id: newID(), data: map[string]json.RawMessage{}}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Changed() bool { return s.changed }

// Get decodes the value stored under key into dst. It reports false when the key is
// absent or cannot be decoded.
func (s *Session) Get(key string, dst any) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.changed = true
	return nil
}

func (s *Session) Delete(key string) {
	if _, ok := s.data[key]; !ok {
		return
	}
	delete(s.data, key)
	s.changed = true
}

func (s *Session) Flash(kind, message string) {
	var flashes []Flash
	s.Get(flashKey, &flashes)
	_ = s.Set(flashKey, append(flashes, Flash{Kind: kind, Message: message}))
}

// Flashes returns and clears pending flash messages.
func (s *Session) Flashes() []Flash {
	var flashes []Flash
	if !s.Get(flashKey, &flashes) {
		return nil
	}
	s.Delete(flashKey)
	return flashes
}

// Invalidate drops all data and moves the session to a new id.
func (s *Session) Invalidate() {
	if s.oldID == "" {
		s.oldID = s.id
	}
	s.id = newID()
	s.data = map[string]json.RawMessage{}
	s.changed = true
}
