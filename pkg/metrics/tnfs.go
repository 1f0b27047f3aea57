package metrics

import "time"

// Metrics provides observability for the TNFS daemon.
//
// Implementations collect metrics about requests, sessions, handles, and
// throughput. This interface is optional - pass nil to disable metrics
// collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	m := prometheus.New()
//	srv, err := tnfs.NewServer(cfg, m)
//
//	// Without metrics (pass nil for zero overhead)
//	srv, err := tnfs.NewServer(cfg, nil)
type Metrics interface {
	// RecordRequest records a completed request with its command name,
	// duration, and outcome status.
	//
	// Parameters:
	//   - command: opcode name (e.g., "mount", "read_block")
	//   - status: protocol status name (e.g., "success", "no_such_file")
	//   - duration: time taken to process the request
	RecordRequest(command string, status string, duration time.Duration)

	// SetActiveSessions updates the current mounted-session count.
	SetActiveSessions(count int)

	// RecordSessionCreated increments the total sessions created counter.
	RecordSessionCreated()

	// RecordSessionReaped increments the total sessions reaped-for-idle
	// counter.
	RecordSessionReaped()

	// SetOpenHandles updates the current open handle count for the given
	// kind ("file" or "dir").
	SetOpenHandles(kind string, count int)

	// RecordBytesTransferred records payload bytes moved in the given
	// direction ("read" or "write").
	RecordBytesTransferred(direction string, bytes uint64)
}
