//go:build windows

package engine

import "os"

// statFollowIsDir reports whether path, after following any symlinks,
// refers to a directory. On Windows there is no equivalent low-level
// primitive wired into this module (golang.org/x/sys/windows reparse-point
// inspection is unnecessary here since os.Stat already follows symlinks
// correctly), so the standard library suffices.
func statFollowIsDir(path string) (bool, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}
