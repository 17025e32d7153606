// Package engine implements chkbit's WorkerPool/Engine/ResultSink: the
// fan-out traversal that seeds a single input queue with every root path, processes each
// directory's DirectoryIndex, and fans out its subdirectories to the same
// pool of workers.
//
// It is grounded on the original Python IndexThread/Context
// producer-consumer design (_examples/original_source/chkbit/indexthread.py,
// context.py) and on the teacher's goroutine+channel+sync.WaitGroup idiom
// for concurrent work queues (pkg/synchronization/endpoint/local/stager.go),
// adapted with an unbounded internal queue (see queue.go) so a worker
// enqueuing its own subdirectories can never deadlock against itself.
package engine

import "github.com/chkbit-go/chkbit/pkg/chkbit/hashing"

// Config is the engine's immutable configuration, shared by value across
// all workers for the duration of a run. Per spec.md section 5, this is
// kept separate from the mutable coordination channels (Engine's job/
// result channels), avoiding any process-wide singleton state.
type Config struct {
	// NumWorkers is the fixed number of concurrent directory workers.
	NumWorkers int
	// Update enables writing updated indexes to disk.
	Update bool
	// Force causes damaged files to have their new (post-damage) record
	// adopted into the index rather than preserved as evidence.
	Force bool
	// SkipSymlinks causes symbolic-link directories to be excluded from
	// traversal (symlinked regular files are still hashed normally).
	SkipSymlinks bool
	// ShowIgnoredOnly switches the engine into a mode that reports which
	// files would be ignored and performs no hashing or index writes.
	ShowIgnoredOnly bool
	// IndexFilename is the configurable name of the per-directory index
	// file (default ".chkbit").
	IndexFilename string
	// IgnoreFilename is the configurable name of the per-directory ignore
	// file (default ".chkbitignore").
	IgnoreFilename string
	// DefaultAlgo is the hash algorithm used for files with no existing
	// record.
	DefaultAlgo hashing.Algorithm
}
