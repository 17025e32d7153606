//go:build !windows

package engine

import "golang.org/x/sys/unix"

// statFollowIsDir reports whether path, after following any symlinks,
// refers to a directory. It is grounded on the teacher's platform-split
// pattern in pkg/filesystem (separate *_posix.go/*_windows.go files) for
// primitives that differ at the syscall level: on POSIX this uses
// golang.org/x/sys/unix's Stat directly (which follows symlinks) rather
// than the os package.
func statFollowIsDir(path string) (bool, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, false
	}
	return st.Mode&unix.S_IFMT == unix.S_IFDIR, true
}
