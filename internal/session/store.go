// Package session provides in-process conversational memory.
//
// A Store maps opaque session identifiers to append-only transcripts of
// user/assistant turns. Sessions are created lazily on first use and
// live for the process lifetime; transcripts are never pruned.
//
// Concurrency: the Store map is safe for concurrent lookup and
// insertion. Within one session, callers that need read-then-append
// atomicity across external calls must hold the session's request lock
// (Serialize) for the duration; distinct sessions proceed in parallel.
package session

import "sync"

// Role identifies who produced a turn.
type Role string

// Valid roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a transcript. Immutable once recorded.
type Turn struct {
	Role Role
	Text string
}

// Session is the transcript state for one session id.
// The zero value is not useful; obtain sessions from Store.Get.
type Session struct {
	reqMu sync.Mutex // serializes whole-request read-then-append sequences
	mu    sync.RWMutex
	turns []Turn
}

// Serialize acquires the session's request lock and returns the release
// function. Hold it across the transcript read and the matching append
// so concurrent requests for the same session cannot interleave turns.
func (s *Session) Serialize() (release func()) {
	s.reqMu.Lock()
	return s.reqMu.Unlock
}

// Snapshot returns a copy of the transcript.
func (s *Session) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Append records turns at the end of the transcript.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// Count returns the number of recorded turns.
func (s *Session) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Store owns the session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it if absent.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Re-check: another goroutine may have created it meanwhile.
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = &Session{}
	st.sessions[id] = s
	return s
}

// Len returns the number of known sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
