package index

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chkbit-go/chkbit/pkg/chkbit/event"
	"github.com/chkbit-go/chkbit/pkg/chkbit/hashing"
	"github.com/chkbit-go/chkbit/pkg/chkbit/ignore"
)

// Sink receives events emitted while an index is built. It mirrors the
// engine's result channel but is expressed as a plain function so that
// DirectoryIndex has no dependency on channels or the engine package.
type Sink func(event.Event)

// DirectoryIndex holds the old (loaded) and new (recomputed) file records
// for a single directory, and implements the load -> hash -> classify ->
// save lifecycle described in spec.md section 4.3.
type DirectoryIndex struct {
	// Dir is the absolute or relative directory path this index belongs
	// to.
	Dir string
	// IndexFilename is the configurable name of the on-disk index file
	// (default ".chkbit").
	IndexFilename string
	// DefaultAlgo is the algorithm used for files with no prior record.
	DefaultAlgo hashing.Algorithm
	// Readonly is true when the run does not update indexes (no -u/--update).
	Readonly bool
	// Sink receives classification and throughput events as they occur.
	Sink Sink

	old map[string]Record

	newOrder []string
	new      map[string]Record

	modified bool
}

// New constructs a DirectoryIndex ready to have Load called on it.
func New(dir, indexFilename string, defaultAlgo hashing.Algorithm, readonly bool, sink Sink) *DirectoryIndex {
	return &DirectoryIndex{
		Dir:           dir,
		IndexFilename: indexFilename,
		DefaultAlgo:   defaultAlgo,
		Readonly:      readonly,
		Sink:          sink,
		old:           make(map[string]Record),
		new:           make(map[string]Record),
	}
}

func (d *DirectoryIndex) emit(e event.Event) {
	if d.Sink != nil {
		d.Sink(e)
	}
}

// indexPath returns the full path to this directory's index file.
func (d *DirectoryIndex) indexPath() string {
	return filepath.Join(d.Dir, d.IndexFilename)
}

// Load reads the directory's existing index file, if any. A missing file
// is not an error and leaves Old empty. A damaged (checksum-mismatched)
// current-format index emits ERR_IDX and marks the index modified so it
// will be rewritten on Save; its records are not trusted, so Old stays
// empty and every file is classified as new.
func (d *DirectoryIndex) Load() error {
	raw, err := os.ReadFile(d.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "unable to read index file")
	}

	decoded, err := Decode(raw)
	if err != nil {
		// A file that exists but fails to parse at all is treated the same
		// as a damaged index: old stays empty, the index gets rewritten.
		d.emit(event.Classification(event.StatusIndexError, d.indexPath()))
		d.modified = true
		return nil
	}

	if !decoded.HashVerified {
		d.emit(event.Classification(event.StatusIndexError, d.indexPath()))
		d.modified = true
		return nil
	}
	d.old = decoded.Records
	return nil
}

// CalcHashes computes New for each file name in the directory listing,
// consulting scope to skip ignored names and reusing each existing
// record's algorithm when present (algorithm stability, invariant 5).
func (d *DirectoryIndex) CalcHashes(scope *ignore.Scope, names []string) error {
	for _, name := range names {
		if scope.ShouldIgnore(name) {
			d.emit(event.Classification(event.StatusIgnore, filepath.Join(d.Dir, name)))
			continue
		}

		algo := d.DefaultAlgo
		if existing, ok := d.old[name]; ok {
			algo = existing.Algo
		}

		_, existedOld := d.old[name]
		isNew := !existedOld

		if d.Readonly && isNew {
			d.addNew(name, Record{Algo: algo})
			continue
		}

		info, err := os.Stat(filepath.Join(d.Dir, name))
		if err != nil {
			return errors.Wrapf(err, "unable to stat %s", name)
		}
		modMillis := info.ModTime().UnixMilli()

		digest, _, err := hashing.HashFile(filepath.Join(d.Dir, name), algo, func(n int) {
			d.emit(event.Throughput(0, int64(n)))
		})
		if err != nil {
			return errors.Wrapf(err, "unable to hash %s", name)
		}
		d.emit(event.Throughput(1, 0))

		d.addNew(name, Record{Mod: &modMillis, Algo: algo, Hash: &digest})
	}
	return nil
}

// addNew records a freshly computed entry, tracking insertion order for
// the canonical encoding.
func (d *DirectoryIndex) addNew(name string, rec Record) {
	if _, exists := d.new[name]; !exists {
		d.newOrder = append(d.newOrder, name)
	}
	d.new[name] = rec
}

// CheckFix compares New against Old for every name in New and classifies
// each according to spec.md section 4.3's decision table. If force is
// true, a damaged file's New record (the freshly observed, mismatched
// content) is kept instead of being replaced with the Old evidence.
func (d *DirectoryIndex) CheckFix(force bool) {
	for _, name := range d.newOrder {
		newRec := d.new[name]
		path := filepath.Join(d.Dir, name)

		oldRec, existed := d.old[name]
		if !existed {
			d.emit(event.Classification(event.StatusNew, path))
			d.modified = true
			continue
		}

		sameContent := oldRec.SameContent(newRec)
		sameMod := oldRec.SameMod(newRec)

		switch {
		case sameContent && sameMod:
			d.emit(event.Classification(event.StatusOK, path))
		case sameContent && !sameMod:
			d.emit(event.Classification(event.StatusOK, path))
			d.modified = true
		case !sameContent && sameMod:
			d.emit(event.Classification(event.StatusDamage, path))
			if force {
				d.modified = true
			} else {
				// Preserve the old record verbatim so the evidence of
				// damage isn't lost on the next run.
				d.new[name] = oldRec
			}
		case !sameContent && modBefore(oldRec, newRec):
			d.emit(event.Classification(event.StatusUpdate, path))
			d.modified = true
		default:
			d.emit(event.Classification(event.StatusWarnOld, path))
			d.modified = true
		}
	}
}

// modBefore reports whether old's mod time is strictly earlier than new's.
// Records with a nil Mod never compare as "before" anything; this only
// matters for the damaged/updated/rolled-back branch of CheckFix, which is
// unreachable for placeholder records since those are only produced for
// names absent from Old (handled by the "not existed" branch above).
func modBefore(old, new Record) bool {
	if old.Mod == nil || new.Mod == nil {
		return false
	}
	return *old.Mod < *new.Mod
}

// Save writes New to disk if Modified is set and the index is not
// read-only, using a temp-file-plus-rename so a crash mid-write can never
// leave a torn index file (resolving the open question in spec.md section
// 9 in favor of atomicity). It returns true if a write occurred.
func (d *DirectoryIndex) Save() (bool, error) {
	if !d.modified {
		return false, nil
	}
	if d.Readonly {
		return false, errors.New("cannot save a read-only index")
	}

	doc, _, err := EncodeFile(d.newOrder, d.new)
	if err != nil {
		return false, err
	}

	tempPath := filepath.Join(d.Dir, d.IndexFilename+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tempPath, doc, 0o644); err != nil {
		return false, errors.Wrap(err, "unable to write temporary index file")
	}
	if err := os.Rename(tempPath, d.indexPath()); err != nil {
		os.Remove(tempPath)
		return false, errors.Wrap(err, "unable to rename temporary index file into place")
	}

	d.modified = false
	return true, nil
}

// ShowIgnoredOnly emits StatusIgnore for every name the scope would
// ignore and performs no hashing or save. Used for --show-ignored-only.
func (d *DirectoryIndex) ShowIgnoredOnly(scope *ignore.Scope, names []string) {
	for _, name := range names {
		if scope.ShouldIgnore(name) {
			d.emit(event.Classification(event.StatusIgnore, filepath.Join(d.Dir, name)))
		}
	}
}

// NewRecord returns the freshly computed record for name, if any, primarily for
// tests that want to inspect post-classification state.
func (d *DirectoryIndex) NewRecord(name string) (Record, bool) {
	rec, ok := d.new[name]
	return rec, ok
}

// Modified reports whether Save would write to disk.
func (d *DirectoryIndex) Modified() bool {
	return d.modified
}
