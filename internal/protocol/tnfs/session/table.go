package session

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"
)

// Table is the process-wide mapping from session id to Session. It is the
// only process-wide mutable structure in the daemon; everything else
// (handle tables, replay cache) is owned exclusively by one Session.
type Table struct {
	mu          sync.Mutex
	sessions    map[uint16]*Session
	maxSessions int
	maxHandles  int
	rng         *rand.Rand
}

// NewTable creates an empty session table accepting up to maxSessions
// concurrent sessions, each with up to maxHandles file and maxHandles
// directory handle slots.
func NewTable(maxSessions, maxHandles int) *Table {
	return &Table{
		sessions:    make(map[uint16]*Session),
		maxSessions: maxSessions,
		maxHandles:  maxHandles,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Allocate returns a new Session with a fresh non-zero id. Ids are drawn
// from a rotating random space rather than lowest-free, so a session that
// just closed does not hand its id straight back to a stale retransmitted
// mount from a different client.
func (t *Table) Allocate(addr *net.UDPAddr, version uint16) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.sessions) >= t.maxSessions {
		return nil, fmt.Errorf("session table full")
	}

	var id uint16
	for {
		id = uint16(t.rng.Intn(0xFFFF)) + 1 // never 0
		if _, taken := t.sessions[id]; !taken {
			break
		}
	}

	s := newSession(id, addr, version, t.maxHandles)
	t.sessions[id] = s
	return s, nil
}

// Lookup returns the session for id, or an error if no such session
// exists.
func (t *Table) Lookup(id uint16) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("invalid session %d", id)
	}
	return s, nil
}

// Destroy closes every handle owned by the session and removes it from
// the table.
func (t *Table) Destroy(id uint16) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()

	if ok {
		s.CloseAllHandles()
	}
}

// Sweep destroys every session whose last-activity timestamp is older than
// idleTimeout. Returns the number of sessions reaped.
func (t *Table) Sweep(idleTimeout time.Duration) int {
	t.mu.Lock()
	var expired []*Session
	for id, s := range t.sessions {
		if s.IdleSince() > idleTimeout {
			expired = append(expired, s)
			delete(t.sessions, id)
		}
	}
	t.mu.Unlock()

	// Handle closing can block on host I/O; never do it while t.mu is
	// held, since that would serialize unrelated sessions behind it.
	for _, s := range expired {
		s.CloseAllHandles()
	}
	return len(expired)
}

// Count returns the number of live sessions.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// OpenHandleCounts returns the total number of open file and directory
// handles summed across every live session, for gauge reporting.
func (t *Table) OpenHandleCounts() (files, dirs int) {
	t.mu.Lock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		files += s.OpenFileCount()
		dirs += s.OpenDirCount()
	}
	return files, dirs
}
