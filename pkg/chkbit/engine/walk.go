package engine

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// listing is the result of partitioning one directory's entries.
type listing struct {
	// Files are the regular (non-directory, non-dotfile) entry names.
	Files []string
	// Subdirs are the traversable directory entry names (dotfile and, if
	// SkipSymlinks is set, symlinked directories already excluded).
	Subdirs []string
	// DotfileEntries holds names beginning with "." other than the
	// engine's own index/ignore files, reported as ignored only in
	// --show-ignored-only mode.
	DotfileEntries []string
}

// list reads dir's immediate children and partitions them per spec.md
// section 4.4 step 2-3: dotfile entries are skipped unconditionally
// (except under --show-ignored-only, handled by the caller using
// DotfileEntries), and directories are dropped from traversal if they are
// symlinks and skipSymlinks is set.
func list(dir string, indexFilename, ignoreFilename string, skipSymlinks bool) (listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return listing{}, errors.Wrap(err, "unable to list directory")
	}

	// os.ReadDir already returns entries sorted by file name, which gives
	// us a stable, deterministic directory-listing order for emitted
	// events and for the canonical index encoding's key order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var result listing
	for _, entry := range entries {
		// On decomposing filesystems (HFS+/APFS) recomposeName turns the
		// NFD name the OS hands back into NFC, so the same logical name
		// produces the same index key regardless of which volume it lives
		// on. Elsewhere it's a no-op.
		name := recomposeName(entry.Name())
		if len(name) > 0 && name[0] == '.' {
			if name == indexFilename || name == ignoreFilename {
				continue
			}
			result.DotfileEntries = append(result.DotfileEntries, name)
			continue
		}

		isDir := entry.IsDir()
		isSymlink := entry.Type()&os.ModeSymlink != 0

		if isSymlink {
			targetIsDir, ok := statFollowIsDir(filepath.Join(dir, name))
			if !ok {
				// A dangling symlink: treat as neither file nor
				// traversable directory, matching stat's own inability
				// to hash or list it.
				continue
			}
			isDir = targetIsDir
			if isDir && skipSymlinks {
				continue
			}
		}

		if isDir {
			result.Subdirs = append(result.Subdirs, name)
		} else {
			result.Files = append(result.Files, name)
		}
	}

	return result, nil
}
