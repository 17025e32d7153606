// Package index implements chkbit's per-directory DirectoryIndex: loading
// an existing on-disk index, hashing the directory's files, classifying
// them against the loaded records, and atomically persisting the result.
//
// It is grounded on the original chkbit Python implementation's Index
// class (_examples/original_source/chkbit/index.py and indexthread.py) for
// the load/calc/check_fix/save lifecycle and classification rules, and on
// the teacher's tagged-value and atomic-write idioms elsewhere in
// pkg/filesystem for Go realization details the Python source leaves
// implicit (e.g. a fixed struct rather than a dynamically-typed dict).
package index

import "github.com/chkbit-go/chkbit/pkg/chkbit/hashing"

// Record is the unit stored in an index: one file's modification time and
// content digest as observed the last time it was hashed.
//
// Mod and Hash are pointers because placeholder records written during
// read-only runs for newly-seen files carry neither: the engine reports
// that the file exists without paying the cost of hashing it.
type Record struct {
	// Mod is the file's modification time in milliseconds since the Unix
	// epoch, truncated (not rounded) from the filesystem's mtime.
	Mod *int64
	// Algo is the hash algorithm used to produce Hash.
	Algo hashing.Algorithm
	// Hash is the lowercase hex digest of the file's contents under Algo.
	Hash *string
}

// IsPlaceholder reports whether r was recorded without being hashed (a
// read-only run encountering a file not present in the old index).
func (r Record) IsPlaceholder() bool {
	return r.Mod == nil && r.Hash == nil
}

// SameContent reports whether two records carry the same algorithm and
// hash. Placeholder records (nil Hash) are never considered to match
// anything, including another placeholder, since there is no content
// evidence to compare.
func (r Record) SameContent(other Record) bool {
	if r.Hash == nil || other.Hash == nil {
		return false
	}
	return r.Algo == other.Algo && *r.Hash == *other.Hash
}

// SameMod reports whether two records carry the same modification time.
// Two nil values are considered equal (both placeholders, or both loaded
// from a legacy record that lacked a timestamp).
func (r Record) SameMod(other Record) bool {
	if r.Mod == nil && other.Mod == nil {
		return true
	}
	if r.Mod == nil || other.Mod == nil {
		return false
	}
	return *r.Mod == *other.Mod
}

// Int64Ptr is a small helper for constructing *int64 literals in tests and
// call sites that build Records by hand.
func Int64Ptr(v int64) *int64 { return &v }

// StringPtr is a small helper for constructing *string literals.
func StringPtr(v string) *string { return &v }
