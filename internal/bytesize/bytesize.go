// Package bytesize parses the human-readable size strings used for the
// daemon's read-block clamp (pkg/config's Server.ReadBlockMax).
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize represents a size in bytes, unmarshaled from strings like "8Ki",
// "512KB", or a plain number of bytes.
//
// The daemon clamps read-block sizes to what fits in the protocol's
// uint16 length field, so only byte/kilo/mebi-scale units are meaningful
// here; there is no gigabyte or terabyte tier.
type ByteSize uint64

const (
	B   ByteSize = 1
	KB  ByteSize = 1000
	MB  ByteSize = 1000 * KB
	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
)

// byteSizePattern matches a number followed by an optional unit suffix
var byteSizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

// unitMultipliers maps unit suffixes to their byte multipliers
var unitMultipliers = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
}

// ParseByteSize parses a human-readable byte size string into a ByteSize
// value. It accepts formats like "8Ki", "64KB", "1Mi", or a bare "65535".
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	matches := byteSizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	numStr := matches[1]
	unit := strings.ToLower(matches[2])

	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", matches[2])
	}

	if strings.Contains(numStr, ".") {
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
		}
		return ByteSize(num * float64(multiplier)), nil
	}

	num, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", numStr)
	}
	return ByteSize(num) * multiplier, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for ByteSize, so it can
// be loaded directly from a YAML config value.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// String returns a human-readable representation, used when logging the
// effective read-block size at startup.
func (b ByteSize) String() string {
	switch {
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
