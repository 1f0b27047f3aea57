package tnfs

import (
	"net"
	"time"

	"github.com/marmos91/tnfsd/internal/logger"
	"github.com/marmos91/tnfsd/internal/protocol/tnfs/fs"
	"github.com/marmos91/tnfsd/internal/protocol/tnfs/session"
	"github.com/marmos91/tnfsd/pkg/metrics"
)

// ProtocolVersion is the version this daemon negotiates at mount. It is
// recorded on the session as advisory metadata; no handler branches on
// it (see the open question in the design notes on version enforcement).
const ProtocolVersion uint16 = 1

// minRetryMillis is suggested to clients in the mount reply as a lower
// bound on their retransmit interval.
const minRetryMillis uint16 = 100

// handlerFunc executes one command against an already-validated session
// (nil for mount, which has none yet) and returns the status and reply
// payload. A handler never returns a host-native error; TranslateHostError
// is always the boundary.
type handlerFunc func(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte)

// Dispatcher routes decoded requests to handlers, enforces the
// session-opening/session-bearing/session-closing command classes, and
// performs replay suppression. It holds no per-connection state of its
// own; all mutable state lives in the session Table.
type Dispatcher struct {
	root         string
	table        *session.Table
	readBlockMax int
	metrics      metrics.Metrics

	handlers [cmdTableSize]handlerFunc
}

// NewDispatcher builds a Dispatcher backed by table, confined to root,
// clamping read-block requests to readBlockMax bytes. m may be nil, in
// which case metrics recording is skipped.
func NewDispatcher(root string, table *session.Table, readBlockMax int, m metrics.Metrics) *Dispatcher {
	d := &Dispatcher{root: root, table: table, readBlockMax: readBlockMax, metrics: m}
	d.handlers[CmdOpenDir] = handleOpenDir
	d.handlers[CmdReadDir] = handleReadDir
	d.handlers[CmdCloseDir] = handleCloseDir
	d.handlers[CmdMkDir] = handleMkDir
	d.handlers[CmdRmDir] = handleRmDir
	d.handlers[CmdTellDir] = handleTellDir
	d.handlers[CmdSeekDir] = handleSeekDir
	d.handlers[CmdOpenDirX] = handleOpenDirX
	d.handlers[CmdReadDirX] = handleReadDirX
	d.handlers[CmdOpenFileLegacy] = handleOpenFileLegacy
	d.handlers[CmdOpenFile] = handleOpenFile
	d.handlers[CmdReadBlock] = handleReadBlock
	d.handlers[CmdWriteBlock] = handleWriteBlock
	d.handlers[CmdCloseFile] = handleCloseFile
	d.handlers[CmdStatFile] = handleStatFile
	d.handlers[CmdSeekFile] = handleSeekFile
	d.handlers[CmdUnlinkFile] = handleUnlinkFile
	d.handlers[CmdChmodFile] = handleChmodFile
	d.handlers[CmdRenameFile] = handleRenameFile
	return d
}

// Dispatch decodes one request datagram from addr and returns the reply
// bytes to send back, or nil if the datagram must be silently dropped
// (malformed header, or a session-opening/bearing mismatch that the
// protocol defines as droppable).
func (d *Dispatcher) Dispatch(addr *net.UDPAddr, data []byte) []byte {
	req, payload, err := DecodeRequest(data)
	if err != nil {
		return nil
	}

	cmd := Command(req.Command)
	start := time.Now()

	var status Status
	var replyPayload []byte
	var closeAfter *session.Session
	replySessionID := req.SessionID

	switch cmd {
	case CmdMount:
		status, replyPayload, replySessionID = handleMount(d, addr, payload)

	case CmdUnmount:
		sess, ok := d.lookupBearing(req, addr)
		if !ok {
			return nil
		}
		if cached, replayed := sess.CheckReplay(req.Sequence); replayed {
			return cached
		}
		status = StatusSuccess
		closeAfter = sess

	default:
		sess, ok := d.lookupBearing(req, addr)
		if !ok {
			return nil
		}
		if cached, replayed := sess.CheckReplay(req.Sequence); replayed {
			sess.Touch()
			return cached
		}

		var h handlerFunc
		if cmd < cmdTableSize {
			h = d.handlers[cmd]
		}
		if h == nil {
			status = StatusNotSupported
		} else {
			status, replyPayload = h(d, sess, payload)
		}
		sess.Touch()

		reply := EncodeReply(ReplyHeader{
			SessionID: req.SessionID,
			Sequence:  req.Sequence,
			Command:   req.Command,
			Status:    uint8(status),
		}, replyPayload)
		sess.RecordReply(req.Sequence, reply)
		d.recordMetrics(cmd, status, start)
		return reply
	}

	reply := EncodeReply(ReplyHeader{
		SessionID: replySessionID,
		Sequence:  req.Sequence,
		Command:   req.Command,
		Status:    uint8(status),
	}, replyPayload)

	if cmd == CmdUnmount && status == StatusSuccess {
		closeAfter.RecordReply(req.Sequence, reply)
	}

	d.recordMetrics(cmd, status, start)

	if closeAfter != nil && status == StatusSuccess {
		d.table.Destroy(closeAfter.ID())
	}
	return reply
}

// lookupBearing validates a session-bearing request: the session must
// exist and the datagram's source address must match the address that
// mounted it.
func (d *Dispatcher) lookupBearing(req RequestHeader, addr *net.UDPAddr) (*session.Session, bool) {
	sess, err := d.table.Lookup(req.SessionID)
	if err != nil || !sess.MatchesAddr(addr) {
		return nil, false
	}
	return sess, true
}

func (d *Dispatcher) recordMetrics(cmd Command, status Status, start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordRequest(cmd.String(), status.String(), time.Since(start))
}

// handleMount allocates a session and returns the status, the reply
// payload, and the session id the reply header must carry (0 on failure).
func handleMount(d *Dispatcher, addr *net.UDPAddr, payload []byte) (Status, []byte, uint16) {
	if len(payload) < 2 {
		return StatusInvalidArgument, nil, 0
	}
	// Client-proposed version and credentials are accepted but not
	// enforced; see the open question on version negotiation.
	_, rest, err := readUint16(payload)
	if err != nil {
		return StatusInvalidArgument, nil, 0
	}
	_, rest, err = readCString(rest) // mount path, unused: the session root is fixed at startup
	if err != nil {
		return StatusInvalidArgument, nil, 0
	}
	_, rest, err = readCString(rest) // user
	if err != nil {
		return StatusInvalidArgument, nil, 0
	}
	_, _, err = readCString(rest) // password
	if err != nil {
		return StatusInvalidArgument, nil, 0
	}

	sess, err := d.table.Allocate(addr, ProtocolVersion)
	if err != nil {
		return StatusOutOfResources, nil, 0
	}
	if d.metrics != nil {
		d.metrics.RecordSessionCreated()
	}

	reply := appendUint16(nil, ProtocolVersion)
	reply = appendUint16(reply, minRetryMillis)
	logger.Info("session mounted", logger.SessionID(sess.ID()), logger.Path(d.root))
	return StatusSuccess, reply, sess.ID()
}

func handleOpenDir(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	clientPath, _, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}

	dh, err := fs.OpenDir(confined)
	if err != nil {
		return TranslateHostError(err), nil
	}
	id, err := sess.AllocDir(dh)
	if err != nil {
		_ = dh.Close()
		return StatusOutOfResources, nil
	}
	return StatusSuccess, appendUint8(nil, uint8(id))
}

func handleOpenDirX(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	clientPath, rest, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	pattern, rest, err := readCString(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	kindMask, rest, err := readUint8(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	sortKey, rest, err := readUint8(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	descending, rest, err := readUint8(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	maxEntries, _, err := readUint16(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}

	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}

	dh, err := fs.OpenDirExtended(confined, fs.ListOptions{
		Pattern:    pattern,
		KindMask:   fs.EntryKindMask(kindMask),
		Sort:       fs.SortKey(sortKey),
		Descending: descending != 0,
		MaxEntries: int(maxEntries),
	})
	if err != nil {
		return TranslateHostError(err), nil
	}
	id, err := sess.AllocDir(dh)
	if err != nil {
		_ = dh.Close()
		return StatusOutOfResources, nil
	}
	return StatusSuccess, appendUint8(nil, uint8(id))
}

func lookupDir(sess *session.Session, payload []byte) (*fs.DirHandle, []byte, Status) {
	id, rest, err := readUint8(payload)
	if err != nil {
		return nil, nil, StatusInvalidArgument
	}
	h, err := sess.Dir(int(id))
	if err != nil {
		return nil, nil, StatusBadHandle
	}
	dh, ok := h.(*fs.DirHandle)
	if !ok {
		return nil, nil, StatusBadHandle
	}
	return dh, rest, StatusSuccess
}

func handleReadDir(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	dh, _, status := lookupDir(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	name, ok := dh.ReadOne()
	if !ok {
		return StatusEOF, nil
	}
	return StatusSuccess, appendCString(nil, name)
}

func handleReadDirX(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	dh, rest, status := lookupDir(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	count, _, err := readUint16(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}

	batch := dh.ReadBatch(int(count))
	reply := appendUint16(nil, uint16(len(batch)))
	for _, e := range batch {
		reply = appendCString(reply, e.Name)
		reply = appendInt64(reply, e.Size)
		reply = appendInt64(reply, e.ModTime.Unix())
		reply = appendUint8(reply, uint8(e.Flags))
	}
	if len(batch) == 0 {
		return StatusEOF, reply
	}
	return StatusSuccess, reply
}

func handleTellDir(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	dh, _, status := lookupDir(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	return StatusSuccess, appendUint32(nil, uint32(dh.Tell()))
}

func handleSeekDir(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	dh, rest, status := lookupDir(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	pos, _, err := readUint32(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	newPos := dh.Seek(int(pos))
	return StatusSuccess, appendUint32(nil, uint32(newPos))
}

func handleCloseDir(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	id, _, err := readUint8(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	if err := sess.CloseDir(int(id)); err != nil {
		return StatusBadHandle, nil
	}
	return StatusSuccess, nil
}

func handleMkDir(d *Dispatcher, _ *session.Session, payload []byte) (Status, []byte) {
	clientPath, _, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}
	if err := fs.MkDir(confined); err != nil {
		return TranslateHostError(err), nil
	}
	return StatusSuccess, nil
}

func handleRmDir(d *Dispatcher, _ *session.Session, payload []byte) (Status, []byte) {
	clientPath, _, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}
	if err := fs.RmDir(confined); err != nil {
		return TranslateHostError(err), nil
	}
	return StatusSuccess, nil
}

// legacyOpenFlags translates the legacy open opcode's flag byte into the
// internal flag set. Legacy clients encode access mode in the low two
// bits like a classic open(2) call (0=RDONLY, 1=WRONLY, 2=RDWR), with
// append/create/truncate as separate high bits.
func legacyOpenFlags(raw uint8) fs.OpenFlag {
	var flags fs.OpenFlag
	switch raw & 0x03 {
	case 0:
		flags |= fs.OpenRead
	case 1:
		flags |= fs.OpenWrite
	case 2:
		flags |= fs.OpenRead | fs.OpenWrite
	}
	if raw&0x08 != 0 {
		flags |= fs.OpenAppend
	}
	if raw&0x10 != 0 {
		flags |= fs.OpenCreate
	}
	if raw&0x20 != 0 {
		flags |= fs.OpenTrunc
	}
	return flags
}

// currentOpenFlags translates the current open opcode's flag byte, whose
// bit layout already matches fs.OpenFlag one-for-one.
func currentOpenFlags(raw uint8) fs.OpenFlag {
	return fs.OpenFlag(raw)
}

func handleOpenFileLegacy(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	return openFile(d, sess, payload, legacyOpenFlags)
}

func handleOpenFile(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	return openFile(d, sess, payload, currentOpenFlags)
}

func openFile(d *Dispatcher, sess *session.Session, payload []byte, translate func(uint8) fs.OpenFlag) (Status, []byte) {
	clientPath, rest, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	raw, _, err := readUint8(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}

	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}

	fh, err := fs.OpenFile(confined, translate(raw))
	if err != nil {
		return TranslateHostError(err), nil
	}
	id, err := sess.AllocFile(fh)
	if err != nil {
		_ = fh.Close()
		return StatusOutOfResources, nil
	}
	return StatusSuccess, appendUint8(nil, uint8(id))
}

func lookupFile(sess *session.Session, payload []byte) (*fs.FileHandle, []byte, Status) {
	id, rest, err := readUint8(payload)
	if err != nil {
		return nil, nil, StatusInvalidArgument
	}
	h, err := sess.File(int(id))
	if err != nil {
		return nil, nil, StatusBadHandle
	}
	fh, ok := h.(*fs.FileHandle)
	if !ok {
		return nil, nil, StatusBadHandle
	}
	return fh, rest, StatusSuccess
}

func handleReadBlock(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	fh, rest, status := lookupFile(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	count, _, err := readUint16(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	n := int(count)
	if n > d.readBlockMax {
		n = d.readBlockMax
	}

	data, eof, err := fh.ReadBlock(n)
	if err != nil {
		return TranslateHostError(err), nil
	}
	if d.metrics != nil && len(data) > 0 {
		d.metrics.RecordBytesTransferred("read", uint64(len(data)))
	}
	reply := appendUint16(nil, uint16(len(data)))
	reply = append(reply, data...)
	if eof {
		return StatusEOF, reply
	}
	return StatusSuccess, reply
}

func handleWriteBlock(d *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	fh, rest, status := lookupFile(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	count, rest, err := readUint16(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	if len(rest) < int(count) {
		return StatusInvalidArgument, nil
	}
	n, err := fh.WriteBlock(rest[:count])
	if err != nil {
		return TranslateHostError(err), nil
	}
	if d.metrics != nil && n > 0 {
		d.metrics.RecordBytesTransferred("write", uint64(n))
	}
	return StatusSuccess, appendUint16(nil, uint16(n))
}

func handleSeekFile(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	fh, rest, status := lookupFile(sess, payload)
	if status != StatusSuccess {
		return status, nil
	}
	whence, rest, err := readUint8(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	offset, _, err := readInt64(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}

	hostWhence := fs.SeekStart
	switch whence {
	case 1:
		hostWhence = fs.SeekCurrent
	case 2:
		hostWhence = fs.SeekEnd
	}
	newOffset, err := fh.Seek(offset, hostWhence)
	if err != nil {
		return TranslateHostError(err), nil
	}
	return StatusSuccess, appendInt64(nil, newOffset)
}

func handleStatFile(d *Dispatcher, _ *session.Session, payload []byte) (Status, []byte) {
	clientPath, _, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}

	st, err := fs.StatFile(confined)
	if err != nil {
		return TranslateHostError(err), nil
	}

	reply := appendUint32(nil, st.Mode)
	reply = appendUint32(reply, st.UID)
	reply = appendUint32(reply, st.GID)
	reply = appendInt64(reply, st.Size)
	reply = appendInt64(reply, st.Atime)
	reply = appendInt64(reply, st.Mtime)
	reply = appendInt64(reply, st.Ctime)
	return StatusSuccess, reply
}

func handleUnlinkFile(d *Dispatcher, _ *session.Session, payload []byte) (Status, []byte) {
	clientPath, _, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	confined, err := fs.Confine(d.root, clientPath)
	if err != nil {
		return StatusAccessDenied, nil
	}
	if err := fs.UnlinkFile(confined); err != nil {
		return TranslateHostError(err), nil
	}
	return StatusSuccess, nil
}

func handleRenameFile(d *Dispatcher, _ *session.Session, payload []byte) (Status, []byte) {
	oldPath, rest, err := readCString(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	newPath, _, err := readCString(rest)
	if err != nil {
		return StatusInvalidArgument, nil
	}

	confinedOld, err := fs.Confine(d.root, oldPath)
	if err != nil {
		return StatusAccessDenied, nil
	}
	confinedNew, err := fs.Confine(d.root, newPath)
	if err != nil {
		return StatusAccessDenied, nil
	}
	if err := fs.RenameFile(confinedOld, confinedNew); err != nil {
		return TranslateHostError(err), nil
	}
	return StatusSuccess, nil
}

func handleChmodFile(_ *Dispatcher, _ *session.Session, _ []byte) (Status, []byte) {
	return StatusNotSupported, nil
}

func handleCloseFile(_ *Dispatcher, sess *session.Session, payload []byte) (Status, []byte) {
	id, _, err := readUint8(payload)
	if err != nil {
		return StatusInvalidArgument, nil
	}
	if err := sess.CloseFile(int(id)); err != nil {
		return StatusBadHandle, nil
	}
	return StatusSuccess, nil
}
