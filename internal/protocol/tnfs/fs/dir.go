package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// EntryFlag bits describe a directory entry in the extended-read reply.
type EntryFlag uint8

const (
	EntryDir     EntryFlag = 1 << 0
	EntryHidden  EntryFlag = 1 << 1
	EntrySpecial EntryFlag = 1 << 2 // "." or ".."
)

// DirEntry is one materialized directory entry, frozen at open time.
type DirEntry struct {
	Name    string
	Size    int64
	ModTime time.Time
	Flags   EntryFlag
}

// SortKey selects the field extended-open sorts the materialized entries
// by.
type SortKey uint8

const (
	SortByName SortKey = iota
	SortBySize
	SortByModTime
)

// EntryKindMask filters which entries extended-open materializes. The
// low bits select entry kinds; KindMaskNoDotEntries is a separate,
// out-of-band bit controlling the synthetic "." and ".." entries rather
// than a filesystem-entry kind.
type EntryKindMask uint8

const (
	KindMaskFiles  EntryKindMask = 1 << 0
	KindMaskDirs   EntryKindMask = 1 << 1
	KindMaskHidden EntryKindMask = 1 << 2

	// KindMaskNoDotEntries suppresses the synthetic "." and ".." entries
	// that would otherwise be prepended to the listing.
	KindMaskNoDotEntries EntryKindMask = 1 << 7
)

// matches reports whether e should be included under mask. A mask with
// no kind bits set matches every non-hidden entry; KindMaskHidden widens
// that to include dotfiles, and KindMaskFiles/KindMaskDirs narrow it to
// the named kinds when either is set.
func (mask EntryKindMask) matches(e DirEntry) bool {
	if e.Flags&EntryHidden != 0 && mask&KindMaskHidden == 0 {
		return false
	}
	kinds := mask & (KindMaskFiles | KindMaskDirs)
	if kinds == 0 {
		return true
	}
	if e.Flags&EntryDir != 0 {
		return kinds&KindMaskDirs != 0
	}
	return kinds&KindMaskFiles != 0
}

// ListOptions configures extended directory open: a glob-style filter
// pattern (empty matches everything), an entry-kind mask, a sort key and
// direction, and a cap on the number of materialized entries.
type ListOptions struct {
	Pattern    string
	KindMask   EntryKindMask
	Sort       SortKey
	Descending bool
	MaxEntries int
}

// DirHandle is an open directory enumeration: a frozen, ordered sequence
// of entries captured at open time and a cursor position. Re-reading or
// seeking never touches the host filesystem again; the snapshot is the
// entire lifetime contract. dotEntries records whether the synthetic "."
// and ".." entries were surfaced at the front of the snapshot.
type DirHandle struct {
	path       string
	entries    []DirEntry
	pos        int
	dotEntries bool
}

// Close releases the handle. There is no host resource held beyond the
// in-memory snapshot, so Close never fails.
func (d *DirHandle) Close() error {
	d.entries = nil
	return nil
}

// OpenDir materializes a legacy directory listing: synthetic "." and
// ".." entries followed by each child in host-provided order.
func OpenDir(confinedPath string) (*DirHandle, error) {
	children, err := os.ReadDir(confinedPath)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(children)+2)
	entries = append(entries, DirEntry{Name: ".", Flags: EntryDir | EntrySpecial})
	entries = append(entries, DirEntry{Name: "..", Flags: EntryDir | EntrySpecial})
	for _, c := range children {
		entries = append(entries, entryFromDirEntry(c))
	}

	return &DirHandle{path: confinedPath, entries: entries, dotEntries: true}, nil
}

// OpenDirExtended materializes an extended listing: entries matching
// opts.Pattern and opts.KindMask, sorted per opts.Sort/opts.Descending,
// and capped at opts.MaxEntries if positive. The synthetic "." and ".."
// entries are included unless opts.KindMask sets KindMaskNoDotEntries.
func OpenDirExtended(confinedPath string, opts ListOptions) (*DirHandle, error) {
	children, err := os.ReadDir(confinedPath)
	if err != nil {
		return nil, err
	}

	withDots := opts.KindMask&KindMaskNoDotEntries == 0

	entries := make([]DirEntry, 0, len(children)+2)
	if withDots {
		entries = append(entries, DirEntry{Name: ".", Flags: EntryDir | EntrySpecial})
		entries = append(entries, DirEntry{Name: "..", Flags: EntryDir | EntrySpecial})
	}
	pinned := len(entries)

	for _, c := range children {
		e := entryFromDirEntry(c)
		if opts.Pattern != "" {
			matched, err := filepath.Match(opts.Pattern, e.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		if !opts.KindMask.matches(e) {
			continue
		}
		entries = append(entries, e)
	}

	sortEntries(entries, pinned, opts.Sort, opts.Descending)

	if opts.MaxEntries > 0 && len(entries) > opts.MaxEntries {
		entries = entries[:opts.MaxEntries]
	}

	return &DirHandle{path: confinedPath, entries: entries, dotEntries: withDots}, nil
}

func entryFromDirEntry(c os.DirEntry) DirEntry {
	var flags EntryFlag
	if c.IsDir() {
		flags |= EntryDir
	}
	if strings.HasPrefix(c.Name(), ".") {
		flags |= EntryHidden
	}

	info, err := c.Info()
	if err != nil {
		// Entry vanished between ReadDir and Info; record it with zeroed
		// metadata rather than failing the whole listing.
		return DirEntry{Name: c.Name(), Flags: flags}
	}
	return DirEntry{Name: c.Name(), Size: info.Size(), ModTime: info.ModTime(), Flags: flags}
}

// sortEntries sorts in place, leaving the first pinned entries (the
// synthetic "." and ".." when present) untouched at the front regardless
// of sort key.
func sortEntries(entries []DirEntry, pinned int, key SortKey, desc bool) {
	if len(entries) <= pinned {
		return
	}
	rest := entries[pinned:]

	less := func(i, j int) bool {
		switch key {
		case SortBySize:
			return rest[i].Size < rest[j].Size
		case SortByModTime:
			return rest[i].ModTime.Before(rest[j].ModTime)
		default:
			return rest[i].Name < rest[j].Name
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

// ReadOne returns the entry at the current position and advances it, or
// ("", false) when the cursor has reached the end of the materialized
// sequence.
func (d *DirHandle) ReadOne() (string, bool) {
	if d.pos >= len(d.entries) {
		return "", false
	}
	name := d.entries[d.pos].Name
	d.pos++
	return name, true
}

// ReadBatch returns up to count entries starting at the current position
// and advances the cursor by the number returned.
func (d *DirHandle) ReadBatch(count int) []DirEntry {
	if d.pos >= len(d.entries) {
		return nil
	}
	end := d.pos + count
	if end > len(d.entries) {
		end = len(d.entries)
	}
	batch := d.entries[d.pos:end]
	d.pos = end
	return batch
}

// Tell returns the current cursor position.
func (d *DirHandle) Tell() int {
	return d.pos
}

// Seek sets the cursor position, clamping to the materialized length.
func (d *DirHandle) Seek(pos int) int {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.entries) {
		pos = len(d.entries)
	}
	d.pos = pos
	return d.pos
}

// MkDir creates a directory at the confined path.
func MkDir(confinedPath string) error {
	return os.Mkdir(confinedPath, 0o755)
}

// RmDir removes an empty directory at the confined path.
func RmDir(confinedPath string) error {
	return os.Remove(confinedPath)
}
