// Package session implements the session and handle manager: per-client
// state with bounded handle tables for open files and directories, replay
// suppression for retransmitted requests, and idle-timeout bookkeeping.
package session

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Handle is anything a session's file or directory table can hold. The
// concrete types (fs.FileHandle, fs.DirHandle) live in the fs package;
// session only needs to free the underlying resource on close or session
// destruction.
type Handle interface {
	Close() error
}

// replaySlot caches the most recent reply for a session so a retransmitted
// request can be answered without re-executing its handler. Per spec, one
// slot per session is sufficient: clients only ever have one request in
// flight.
type replaySlot struct {
	valid    bool
	sequence uint8
	reply    []byte
}

// Session is server-side per-client state established by a successful
// mount. Its handle tables are bounded arrays; a handle id is the index of
// an occupied slot. Zero value of a slot (nil) means free.
type Session struct {
	mu sync.Mutex

	id         uint16
	clientAddr *net.UDPAddr
	version    uint16
	lastActive time.Time

	files  []Handle
	dirs   []Handle
	replay replaySlot
}

// newSession constructs a Session with empty handle tables sized to
// maxHandles. Unexported: sessions are only created through a Table so id
// allocation stays centralized.
func newSession(id uint16, addr *net.UDPAddr, version uint16, maxHandles int) *Session {
	return &Session{
		id:         id,
		clientAddr: addr,
		version:    version,
		lastActive: time.Now(),
		files:      make([]Handle, maxHandles),
		dirs:       make([]Handle, maxHandles),
	}
}

// ID returns the session's assigned id.
func (s *Session) ID() uint16 {
	return s.id
}

// Version returns the protocol version negotiated at mount. It is advisory
// metadata only; no behavior in this implementation branches on it.
func (s *Session) Version() uint16 {
	return s.version
}

// ClientAddr returns the address that mounted this session.
func (s *Session) ClientAddr() *net.UDPAddr {
	return s.clientAddr
}

// MatchesAddr reports whether addr is the address that mounted this
// session. The dispatcher drops session-bearing commands from any other
// address without sending a reply.
func (s *Session) MatchesAddr(addr *net.UDPAddr) bool {
	return s.clientAddr.IP.Equal(addr.IP) && s.clientAddr.Port == addr.Port
}

// Touch records activity now, keeping the session alive for another idle
// window.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince returns how long it has been since the last request on this
// session.
func (s *Session) IdleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

// CheckReplay compares sequence against the cached last-reply sequence. If
// they match and a cached reply exists, it returns the cached bytes and
// true; the caller must retransmit them verbatim without invoking the
// handler.
func (s *Session) CheckReplay(sequence uint8) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replay.valid && s.replay.sequence == sequence {
		return s.replay.reply, true
	}
	return nil, false
}

// RecordReply atomically updates the replay cache after a fresh (non-
// replayed) request completes.
func (s *Session) RecordReply(sequence uint8, reply []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replay = replaySlot{valid: true, sequence: sequence, reply: reply}
}

// AllocFile reserves the first free file-handle slot and stores h there,
// returning its id. Returns an error if the table is full.
func (s *Session) AllocFile(h Handle) (int, error) {
	return allocHandle(&s.mu, s.files, h)
}

// AllocDir reserves the first free directory-handle slot and stores h
// there, returning its id. Returns an error if the table is full.
func (s *Session) AllocDir(h Handle) (int, error) {
	return allocHandle(&s.mu, s.dirs, h)
}

func allocHandle(mu *sync.Mutex, table []Handle, h Handle) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	for i, slot := range table {
		if slot == nil {
			table[i] = h
			return i, nil
		}
	}
	return 0, fmt.Errorf("handle table full")
}

// File returns the file handle at id, or an error if id is out of range or
// the slot is free.
func (s *Session) File(id int) (Handle, error) {
	return lookupHandle(&s.mu, s.files, id)
}

// Dir returns the directory handle at id, or an error if id is out of
// range or the slot is free.
func (s *Session) Dir(id int) (Handle, error) {
	return lookupHandle(&s.mu, s.dirs, id)
}

func lookupHandle(mu *sync.Mutex, table []Handle, id int) (Handle, error) {
	mu.Lock()
	defer mu.Unlock()
	if id < 0 || id >= len(table) || table[id] == nil {
		return nil, fmt.Errorf("invalid handle %d", id)
	}
	return table[id], nil
}

// CloseFile closes and frees the file handle at id.
func (s *Session) CloseFile(id int) error {
	return closeHandle(&s.mu, s.files, id)
}

// CloseDir closes and frees the directory handle at id.
func (s *Session) CloseDir(id int) error {
	return closeHandle(&s.mu, s.dirs, id)
}

func closeHandle(mu *sync.Mutex, table []Handle, id int) error {
	mu.Lock()
	defer mu.Unlock()
	if id < 0 || id >= len(table) || table[id] == nil {
		return fmt.Errorf("invalid handle %d", id)
	}
	h := table[id]
	table[id] = nil
	return h.Close()
}

// CloseAllHandles releases every occupied file and directory handle slot.
// Called when a session is destroyed, before its record is dropped.
func (s *Session) CloseAllHandles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.files {
		if h != nil {
			_ = h.Close()
			s.files[i] = nil
		}
	}
	for i, h := range s.dirs {
		if h != nil {
			_ = h.Close()
			s.dirs[i] = nil
		}
	}
}

// OpenFileCount returns the number of occupied file-handle slots.
func (s *Session) OpenFileCount() int {
	return countOpen(&s.mu, s.files)
}

// OpenDirCount returns the number of occupied directory-handle slots.
func (s *Session) OpenDirCount() int {
	return countOpen(&s.mu, s.dirs)
}

func countOpen(mu *sync.Mutex, table []Handle) int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, h := range table {
		if h != nil {
			n++
		}
	}
	return n
}
