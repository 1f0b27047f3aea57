package session

import (
	"net"
	"testing"
)

func newTestSession(maxHandles int) *Session {
	return newSession(1, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}, 1, maxHandles)
}

func TestSessionMatchesAddr(t *testing.T) {
	s := newTestSession(4)
	same := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}
	other := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}

	if !s.MatchesAddr(same) {
		t.Error("MatchesAddr should be true for the originating address")
	}
	if s.MatchesAddr(other) {
		t.Error("MatchesAddr should be false for a different port")
	}
}

func TestSessionReplayCache(t *testing.T) {
	s := newTestSession(4)

	if _, ok := s.CheckReplay(7); ok {
		t.Error("empty replay cache should never hit")
	}

	s.RecordReply(7, []byte("first reply"))

	cached, ok := s.CheckReplay(7)
	if !ok {
		t.Fatal("want replay hit for matching sequence")
	}
	if string(cached) != "first reply" {
		t.Errorf("cached reply = %q, want %q", cached, "first reply")
	}

	if _, ok := s.CheckReplay(8); ok {
		t.Error("different sequence must not hit the cache")
	}
}

func TestSessionFileHandleTableBounds(t *testing.T) {
	s := newTestSession(2)

	id0, err := s.AllocFile(&fakeHandle{})
	if err != nil {
		t.Fatalf("AllocFile: %v", err)
	}
	id1, err := s.AllocFile(&fakeHandle{})
	if err != nil {
		t.Fatalf("AllocFile: %v", err)
	}
	if id0 == id1 {
		t.Fatalf("two handles got the same id %d", id0)
	}

	if _, err := s.AllocFile(&fakeHandle{}); err == nil {
		t.Error("want error when the file handle table is full")
	}

	if err := s.CloseFile(id0); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	// The freed slot can be reused.
	if _, err := s.AllocFile(&fakeHandle{}); err != nil {
		t.Errorf("AllocFile after close: %v", err)
	}
}

func TestSessionCloseFile_ClosesHostResource(t *testing.T) {
	s := newTestSession(2)
	fh := &fakeHandle{}
	id, err := s.AllocFile(fh)
	if err != nil {
		t.Fatalf("AllocFile: %v", err)
	}
	if err := s.CloseFile(id); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	if !fh.closed {
		t.Error("CloseFile did not close the underlying handle")
	}
	if _, err := s.File(id); err == nil {
		t.Error("closed handle slot should be free")
	}
}

func TestSessionInvalidHandleID(t *testing.T) {
	s := newTestSession(2)
	if _, err := s.File(0); err == nil {
		t.Error("want error for unallocated handle id 0")
	}
	if _, err := s.File(-1); err == nil {
		t.Error("want error for negative handle id")
	}
	if _, err := s.File(100); err == nil {
		t.Error("want error for out-of-range handle id")
	}
}

func TestSessionCloseAllHandles(t *testing.T) {
	s := newTestSession(4)
	files := []*fakeHandle{{}, {}}
	dirs := []*fakeHandle{{}}
	for _, f := range files {
		if _, err := s.AllocFile(f); err != nil {
			t.Fatalf("AllocFile: %v", err)
		}
	}
	for _, d := range dirs {
		if _, err := s.AllocDir(d); err != nil {
			t.Fatalf("AllocDir: %v", err)
		}
	}

	s.CloseAllHandles()

	for _, f := range files {
		if !f.closed {
			t.Error("file handle not closed by CloseAllHandles")
		}
	}
	for _, d := range dirs {
		if !d.closed {
			t.Error("dir handle not closed by CloseAllHandles")
		}
	}
	if s.OpenFileCount() != 0 || s.OpenDirCount() != 0 {
		t.Error("handle counts should be zero after CloseAllHandles")
	}
}
