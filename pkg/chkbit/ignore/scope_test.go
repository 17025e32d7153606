package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func mustLoad(t *testing.T, dir, content string, parent *Scope) *Scope {
	t.Helper()
	if content != "" {
		if err := os.WriteFile(filepath.Join(dir, ".chkbitignore"), []byte(content), 0o644); err != nil {
			t.Fatalf("unable to write ignore file: %v", err)
		}
	}
	scope, err := Load(dir, ".chkbitignore", parent)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return scope
}

func TestMissingIgnoreFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	scope := mustLoad(t, dir, "", nil)
	if scope.ShouldIgnore("anything") {
		t.Fatal("expected no patterns to match when ignore file is absent")
	}
}

func TestBlankAndCommentLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	scope := mustLoad(t, dir, "\n  \n# a comment\n*.tmp\n", nil)
	if !scope.ShouldIgnore("a.tmp") {
		t.Fatal("expected *.tmp to match a.tmp")
	}
	if scope.ShouldIgnore("#notacomment") {
		t.Fatal("comment marker should not have become a pattern")
	}
}

func TestGlobMatching(t *testing.T) {
	dir := t.TempDir()
	scope := mustLoad(t, dir, "*.tmp\ncache?\n[Tt]humbs.db\n", nil)
	cases := map[string]bool{
		"a.tmp":     true,
		"a.tmp.bak": false,
		"cache1":    true,
		"cache12":   false,
		"thumbs.db": true,
		"Thumbs.db": true,
		"image.png": false,
	}
	for name, want := range cases {
		if got := scope.ShouldIgnore(name); got != want {
			t.Errorf("ShouldIgnore(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInheritanceNonAnchoredAppliesToDescendants(t *testing.T) {
	root := t.TempDir()
	rootScope := mustLoad(t, root, "*.tmp\n", nil)

	sub := filepath.Join(root, "sub")
	os.Mkdir(sub, 0o755)
	subScope := mustLoad(t, sub, "", rootScope)

	if !subScope.ShouldIgnore("x.tmp") {
		t.Fatal("expected non-anchored ancestor pattern to apply to descendant")
	}
}

func TestAnchoredPatternOnlyAppliesToDefiningScope(t *testing.T) {
	root := t.TempDir()
	rootScope := mustLoad(t, root, "/only-here.txt\n", nil)

	sub := filepath.Join(root, "sub")
	os.Mkdir(sub, 0o755)
	subScope := mustLoad(t, sub, "", rootScope)

	if !rootScope.ShouldIgnore("only-here.txt") {
		t.Fatal("expected anchored pattern to apply within its own directory")
	}
	if subScope.ShouldIgnore("only-here.txt") {
		t.Fatal("anchored pattern must not apply to descendant directories")
	}
}

func TestMultiLevelInheritance(t *testing.T) {
	root := t.TempDir()
	rootScope := mustLoad(t, root, "*.log\n", nil)

	a := filepath.Join(root, "a")
	os.Mkdir(a, 0o755)
	aScope := mustLoad(t, a, "", rootScope)

	b := filepath.Join(a, "b")
	os.Mkdir(b, 0o755)
	bScope := mustLoad(t, b, "", aScope)

	if !bScope.ShouldIgnore("debug.log") {
		t.Fatal("expected pattern from grandparent scope to apply")
	}
}
