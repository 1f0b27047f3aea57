// Package fs is the filesystem mediator: it joins client-supplied paths
// against a confined root, translates host errors into protocol status
// codes, and implements directory and file operations including both
// legacy and extended enumeration.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Confine resolves a client-supplied path against root and guarantees the
// result is a descendant of root (inclusive of root itself).
//
// The client path is treated as absolute within the root regardless of a
// leading separator, normalized by collapsing "." and ".." segments
// textually before any host resolution, and rejected outright if
// normalization would escape the root or if any segment contains a null
// byte. After that textual check, an existing path has its symlinks
// resolved on the host and is rejected if the real path lies outside the
// root (see checkSymlinkEscape); a path that does not exist yet passes.
func Confine(root, clientPath string) (string, error) {
	if strings.ContainsRune(clientPath, 0) {
		return "", fmt.Errorf("path contains null byte")
	}

	segments, err := normalize(clientPath)
	if err != nil {
		return "", err
	}

	resolved := root
	if len(segments) > 0 {
		resolved = filepath.Join(root, filepath.Join(segments...))
	}

	return resolved, checkSymlinkEscape(root, resolved)
}

// checkSymlinkEscape resolves symlinks in resolved and verifies the
// result still lies beneath root. A path that does not exist yet (the
// common case for create operations) has nothing to resolve and is
// allowed through; Confine's job is only to stop an existing symlink
// from smuggling a request outside the root.
func checkSymlinkEscape(root, resolved string) error {
	real, err := filepath.EvalSymlinks(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}

	rel, err := filepath.Rel(realRoot, real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("access denied: symlink escapes root")
	}
	return nil
}

// normalize splits a client-supplied path (absolute within the root
// regardless of leading separator) into segments, collapsing "." and
// resolving ".." against the segments collected so far. Unlike
// filepath.Clean, a ".." with nothing left to pop is an error rather than
// a silently dropped no-op: that is exactly the traversal attempt
// confinement exists to catch.
func normalize(clientPath string) ([]string, error) {
	raw := strings.Split(clientPath, "/")
	stack := make([]string, 0, len(raw))

	for _, seg := range raw {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return nil, fmt.Errorf("path escapes root")
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	return stack, nil
}
