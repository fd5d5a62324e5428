package store

import (
	"sync"
	"time"
)

const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type session struct {
	msgs     []Message
	lastSeen time.Time
}

// MemoryStore keeps one ordered, append-only conversation per session.
// Every session starts with the seed messages (system prompt, greeting).
// A session untouched for longer than the idle TTL is discarded.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]*session
	seed      []Message
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore builds a store; an idleTTL of 0 keeps sessions until Reset.
func NewMemoryStore(idleTTL time.Duration, seed ...Message) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]*session),
		seed:     append([]Message(nil), seed...),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
	m.lastSweep = m.now()
	return m
}

// Append adds msg to the session, creating it from the seed when needed.
func (m *MemoryStore) Append(sessionID string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)

	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s, now) {
		s = &session{msgs: append(make([]Message, 0, len(m.seed)+2), m.seed...)}
		m.sessions[sessionID] = s
	}
	s.msgs = append(s.msgs, msg)
	s.lastSeen = now
}

// History returns a copy of the session including the seed messages. An
// unknown session reads as the seed alone and is not stored.
func (m *MemoryStore) History(sessionID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)

	msgs := m.seed
	if s, ok := m.sessions[sessionID]; ok && !m.expired(s, now) {
		s.lastSeen = now
		msgs = s.msgs
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Reset ends a session; the next access starts over from the seed.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(m.now())
	return len(m.sessions)
}

func (m *MemoryStore) expired(s *session, now time.Time) bool {
	return m.idleTTL > 0 && now.Sub(s.lastSeen) > m.idleTTL
}

// sweepLocked drops idle sessions, at most once per idle TTL.
func (m *MemoryStore) sweepLocked(now time.Time) {
	if m.idleTTL <= 0 || now.Sub(m.lastSweep) < m.idleTTL {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
		}
	}
}

// Visible drops system messages, which are never rendered to the user.
func Visible(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == RoleSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}
