// Package ignore implements chkbit's per-directory ignore-pattern scopes.
// It is grounded on the teacher's Mutagen-style ignorer
// (pkg/synchronization/core/ignore/mutagen/ignore.go), reusing its
// doublestar-based glob matching, but generalized to the spec's simpler
// parent-chained scope graph (no negation, no directory-only markers — the
// spec's ignore files are plain shell-glob lists with an optional leading
// "/" anchor).
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// pattern is a single parsed ignore-file line.
type pattern struct {
	// anchored indicates the pattern had a leading "/" and so only matches
	// bare names in the scope that defined it, never composed child paths.
	anchored bool
	// glob is the pattern text with any leading "/" stripped.
	glob string
}

// Scope is one directory's view of the active ignore patterns, including
// those inherited from ancestors. A Scope is immutable after construction
// and safe to share across goroutines.
type Scope struct {
	patterns []pattern
	parent   *Scope
	// name is the basename of the directory this scope was built for,
	// followed by "/", used to build composed relative paths when
	// delegating a check upward to the parent.
	name string
}

// Root returns an empty scope with no parent, suitable for a filesystem
// root that has no ancestor scope.
func Root() *Scope {
	return &Scope{}
}

// Load reads "<dir>/<ignoreFilename>" if present and constructs a new Scope
// for dir whose parent is the supplied scope. A missing ignore file is not
// an error; the resulting scope simply carries no local patterns, only the
// parent's.
func Load(dir, ignoreFilename string, parent *Scope) (*Scope, error) {
	scope := &Scope{
		parent: parent,
		name:   filepath.Base(dir) + "/",
	}

	data, err := os.ReadFile(filepath.Join(dir, ignoreFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return scope, nil
		}
		return nil, errors.Wrap(err, "unable to read ignore file")
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}

		p := pattern{glob: line}
		if strings.HasPrefix(line, "/") {
			p.anchored = true
			p.glob = line[1:]
		}
		if _, err := doublestar.Match(p.glob, "probe"); err != nil {
			return nil, errors.Wrapf(err, "invalid ignore pattern %q", line)
		}
		scope.patterns = append(scope.patterns, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to parse ignore file")
	}

	return scope, nil
}

// ShouldIgnore reports whether name (a bare file or directory basename
// within the directory this scope was built for) should be ignored.
func (s *Scope) ShouldIgnore(name string) bool {
	return s.shouldIgnore(name, "")
}

// shouldIgnore is the recursive implementation. full, when non-empty, is
// the path composed by a descendant scope delegating the check upward.
func (s *Scope) shouldIgnore(name, full string) bool {
	if s == nil {
		return false
	}

	// Shell-glob matching runs over the whole string, so "*" and "?" also
	// match the "/" of a path composed by a descendant scope. doublestar
	// treats "/" as a separator, so it is swapped for a non-separator rune
	// on both sides before matching.
	match := func(glob, text string) bool {
		ok, _ := doublestar.Match(strings.ReplaceAll(glob, "/", "\x00"), strings.ReplaceAll(text, "/", "\x00"))
		return ok
	}

	for _, p := range s.patterns {
		if p.anchored {
			// Anchored patterns only ever apply to this scope's own
			// immediate children, never to a path composed by a
			// descendant delegating the check upward.
			if full != "" {
				continue
			}
			if match(p.glob, name) {
				return true
			}
			continue
		}

		if match(p.glob, name) {
			return true
		}
		if full != "" && match(p.glob, full) {
			return true
		}
	}

	if s.parent == nil {
		return false
	}

	composedName := full
	if composedName == "" {
		composedName = name
	}
	return s.parent.shouldIgnore(composedName, s.name+composedName)
}
