package session

import (
	"fmt"
	"net"
	"testing"
	"time"
)

type fakeHandle struct {
	closed bool
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func TestTableAllocate_AssignsNonZeroUniqueIDs(t *testing.T) {
	tbl := NewTable(8, 4)

	seen := make(map[uint16]bool)
	for i := 0; i < 8; i++ {
		s, err := tbl.Allocate(testAddr(10000+i), 1)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if s.ID() == 0 {
			t.Error("session id must not be zero")
		}
		if seen[s.ID()] {
			t.Errorf("session id %d reused while still live", s.ID())
		}
		seen[s.ID()] = true
	}
}

func TestTableAllocate_FullTableErrors(t *testing.T) {
	tbl := NewTable(2, 4)
	if _, err := tbl.Allocate(testAddr(1), 1); err != nil {
		t.Fatalf("Allocate 1: %v", err)
	}
	if _, err := tbl.Allocate(testAddr(2), 1); err != nil {
		t.Fatalf("Allocate 2: %v", err)
	}
	if _, err := tbl.Allocate(testAddr(3), 1); err == nil {
		t.Error("want error when table is full, got nil")
	}
}

func TestTableLookup_UnknownIDErrors(t *testing.T) {
	tbl := NewTable(4, 4)
	if _, err := tbl.Lookup(999); err == nil {
		t.Error("want error for unknown session id, got nil")
	}
}

func TestTableDestroy_ClosesHandlesAndFreesID(t *testing.T) {
	tbl := NewTable(4, 4)
	s, err := tbl.Allocate(testAddr(1), 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	fh := &fakeHandle{}
	if _, err := s.AllocFile(fh); err != nil {
		t.Fatalf("AllocFile: %v", err)
	}

	tbl.Destroy(s.ID())

	if !fh.closed {
		t.Error("handle was not closed on session destroy")
	}
	if _, err := tbl.Lookup(s.ID()); err == nil {
		t.Error("destroyed session is still present in table")
	}
}

func TestTableSweep_ReapsIdleSessionsAndClosesHandles(t *testing.T) {
	tbl := NewTable(4, 4)
	s, err := tbl.Allocate(testAddr(1), 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	fh := &fakeHandle{}
	if _, err := s.AllocFile(fh); err != nil {
		t.Fatalf("AllocFile: %v", err)
	}

	// Force the session to look idle without sleeping the test.
	s.mu.Lock()
	s.lastActive = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	n := tbl.Sweep(time.Minute)
	if n != 1 {
		t.Fatalf("Sweep reaped %d sessions, want 1", n)
	}
	if !fh.closed {
		t.Error("handle was not closed by sweep")
	}
	if _, err := tbl.Lookup(s.ID()); err == nil {
		t.Error("swept session still present in table")
	}
}

func TestTableSweep_KeepsActiveSessions(t *testing.T) {
	tbl := NewTable(4, 4)
	s, err := tbl.Allocate(testAddr(1), 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	s.Touch()

	if n := tbl.Sweep(time.Minute); n != 0 {
		t.Errorf("Sweep reaped %d sessions, want 0", n)
	}
	if _, err := tbl.Lookup(s.ID()); err != nil {
		t.Errorf("active session was reaped: %v", err)
	}
}

func TestTableCount(t *testing.T) {
	tbl := NewTable(4, 4)
	if tbl.Count() != 0 {
		t.Fatalf("Count = %d, want 0", tbl.Count())
	}
	for i := 0; i < 3; i++ {
		if _, err := tbl.Allocate(testAddr(i), 1); err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
	}
	if tbl.Count() != 3 {
		t.Errorf("Count = %d, want 3", tbl.Count())
	}
}

func TestTableOpenHandleCounts(t *testing.T) {
	tbl := NewTable(4, 4)
	s, err := tbl.Allocate(testAddr(1), 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.AllocFile(&fakeHandle{}); err != nil {
			t.Fatalf("AllocFile %d: %v", i, err)
		}
	}
	if _, err := s.AllocDir(&fakeHandle{}); err != nil {
		t.Fatalf("AllocDir: %v", err)
	}

	files, dirs := tbl.OpenHandleCounts()
	if files != 2 || dirs != 1 {
		t.Errorf("OpenHandleCounts = (%d, %d), want (2, 1)", files, dirs)
	}
}

func TestTableLookup_ConcurrentAllocateIsSafe(t *testing.T) {
	tbl := NewTable(64, 4)
	done := make(chan error, 32)
	for i := 0; i < 32; i++ {
		i := i
		go func() {
			_, err := tbl.Allocate(testAddr(i), 1)
			done <- err
		}()
	}
	for i := 0; i < 32; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Allocate: %v", err)
		}
	}
	if tbl.Count() != 32 {
		t.Errorf("Count = %d, want 32", tbl.Count())
	}
}

func ExampleTable_Allocate() {
	tbl := NewTable(4, 4)
	s, _ := tbl.Allocate(testAddr(1), 1)
	fmt.Println(s.ID() != 0)
	// Output: true
}
