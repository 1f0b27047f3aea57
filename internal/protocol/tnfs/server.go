package tnfs

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/marmos91/tnfsd/internal/logger"
	"github.com/marmos91/tnfsd/internal/protocol/tnfs/session"
	"github.com/marmos91/tnfsd/pkg/config"
	"github.com/marmos91/tnfsd/pkg/metrics"
)

// maxDatagramSize bounds a single read from the UDP socket. It is sized
// comfortably above the largest block the protocol will ever move in one
// datagram (a read/write block plus its small header).
const maxDatagramSize = 8192

// Server owns the listening socket, the session table, and the reaper
// goroutine. It runs a single-threaded event loop: one goroutine reads
// and replies to datagrams, and a second goroutine runs the periodic
// Table.Sweep (plus, with metrics enabled, the table's session and handle
// counts). Both reach session state only through the Table's lock and
// each Session's own lock.
type Server struct {
	conn       *net.UDPConn
	dispatcher *Dispatcher
	table      *session.Table
	sweepEvery time.Duration
	idleAfter  time.Duration
	metrics    metrics.Metrics
}

// NewServer builds a Server from cfg, rooted at cfg.Server.Root and
// listening on cfg.Server.Port. m may be nil to disable metrics.
func NewServer(cfg *config.Config, m metrics.Metrics) (*Server, error) {
	table := session.NewTable(cfg.Server.MaxSessions, cfg.Server.MaxHandlesPerSession)
	dispatcher := NewDispatcher(cfg.Server.Root, table, int(cfg.Server.ReadBlockMax), m)

	addr := &net.UDPAddr{Port: cfg.Server.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind udp %d: %w", cfg.Server.Port, err)
	}

	return &Server{
		conn:       conn,
		dispatcher: dispatcher,
		table:      table,
		sweepEvery: cfg.Server.SweepInterval,
		idleAfter:  cfg.Server.IdleTimeout,
		metrics:    m,
	}, nil
}

// Addr returns the address the server is actually bound to, useful when
// the configured port was 0.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Run blocks, serving datagrams and reaping idle sessions until ctx is
// canceled. On cancellation it closes the socket and destroys every
// remaining session, closing all of their handles.
func (s *Server) Run(ctx context.Context) error {
	go s.reapLoop(ctx)

	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				s.table.Sweep(-1) // every session is idle for longer than -1ns
				return nil
			default:
				return fmt.Errorf("read udp: %w", err)
			}
		}

		reply := s.dispatcher.Dispatch(addr, buf[:n])
		if reply == nil {
			continue
		}
		if _, err := s.conn.WriteToUDP(reply, addr); err != nil {
			logger.Warn("failed to send reply", logger.Err(err))
		}
	}
}

func (s *Server) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.table.Sweep(s.idleAfter)
			if n > 0 {
				logger.Info("reaped idle sessions", logger.Count(n))
			}
			if s.metrics != nil {
				for i := 0; i < n; i++ {
					s.metrics.RecordSessionReaped()
				}
				s.metrics.SetActiveSessions(s.table.Count())
				files, dirs := s.table.OpenHandleCounts()
				s.metrics.SetOpenHandles("file", files)
				s.metrics.SetOpenHandles("dir", dirs)
			}
		}
	}
}

// Close releases the listening socket. Safe to call after Run has
// already returned due to context cancellation.
func (s *Server) Close() error {
	return s.conn.Close()
}
