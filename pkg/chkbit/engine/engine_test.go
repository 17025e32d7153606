package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chkbit-go/chkbit/pkg/chkbit/event"
	"github.com/chkbit-go/chkbit/pkg/chkbit/hashing"
	"github.com/chkbit-go/chkbit/pkg/logging"
)

func baseConfig() Config {
	return Config{
		NumWorkers:     2,
		IndexFilename:  ".chkbit",
		IgnoreFilename: ".chkbitignore",
		DefaultAlgo:    hashing.AlgorithmMD5,
	}
}

// runSync runs the engine to completion and returns all events plus the
// aggregated summary.
func runSync(t *testing.T, cfg Config, roots []string) ([]event.Event, Summary) {
	t.Helper()
	e := New(cfg, logging.RootLogger.Sublogger("test"))
	events := e.Run(context.Background(), roots)

	var all []event.Event
	var sink Sink
	sink.Observer = func(ev event.Event) { all = append(all, ev) }

	done := make(chan Summary, 1)
	go func() { done <- sink.Drain(events) }()

	select {
	case summary := <-done:
		return all, summary
	case <-time.After(10 * time.Second):
		t.Fatal("engine run timed out")
		return nil, Summary{}
	}
}

func classificationsFor(events []event.Event, status event.Status) []string {
	var paths []string
	for _, e := range events {
		if e.Kind == event.KindClassification && e.Status == status {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("unable to write %s: %v", path, err)
	}
}

func setMtime(t *testing.T, path string, when time.Time) {
	t.Helper()
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("unable to set mtime on %s: %v", path, err)
	}
}

// Scenario 1: clean re-verify.
func TestCleanReverify(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.bin")
	writeFile(t, aPath, []byte("hello"))

	cfg := baseConfig()
	cfg.Update = true
	if _, summary := runSync(t, cfg, []string{root}); summary.HasFailures() {
		t.Fatalf("seed run should not fail: %+v", summary)
	}

	cfg.Update = false
	events, summary := runSync(t, cfg, []string{root})
	if summary.HasFailures() {
		t.Fatalf("expected no failures, got %+v", summary)
	}
	if summary.Total != 1 {
		t.Fatalf("expected total=1, got %d", summary.Total)
	}
	ok := classificationsFor(events, event.StatusOK)
	if len(ok) != 1 || ok[0] != aPath {
		t.Fatalf("expected exactly one ok for %s, got %v", aPath, ok)
	}
}

// Scenario 2: legitimate update.
func TestLegitimateUpdate(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.bin")
	writeFile(t, aPath, []byte("hello"))

	cfg := baseConfig()
	cfg.Update = true
	runSync(t, cfg, []string{root})

	writeFile(t, aPath, []byte("world"))
	setMtime(t, aPath, time.Now().Add(1*time.Second))

	events, summary := runSync(t, cfg, []string{root})
	if summary.HasFailures() {
		t.Fatalf("expected no failures: %+v", summary)
	}
	upd := classificationsFor(events, event.StatusUpdate)
	if len(upd) != 1 || upd[0] != aPath {
		t.Fatalf("expected exactly one upd for %s, got %v", aPath, upd)
	}

	cfg.Update = false
	events2, _ := runSync(t, cfg, []string{root})
	ok := classificationsFor(events2, event.StatusOK)
	if len(ok) != 1 {
		t.Fatalf("expected subsequent run to report ok, got events: %v", events2)
	}
}

// Scenario 3: bitrot detection.
func TestBitrotDetection(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.bin")
	writeFile(t, aPath, []byte("hello"))

	cfg := baseConfig()
	cfg.Update = true
	runSync(t, cfg, []string{root})

	info, err := os.Stat(aPath)
	if err != nil {
		t.Fatal(err)
	}
	originalMtime := info.ModTime()

	writeFile(t, aPath, []byte("HELLO"))
	setMtime(t, aPath, originalMtime)

	cfg.Update = false
	events, summary := runSync(t, cfg, []string{root})
	if !summary.HasFailures() {
		t.Fatal("expected failures due to bitrot")
	}
	dmg := classificationsFor(events, event.StatusDamage)
	if len(dmg) != 1 || dmg[0] != aPath {
		t.Fatalf("expected exactly one DMG for %s, got %v", aPath, dmg)
	}
	if len(summary.Damaged) != 1 || summary.Damaged[0] != aPath {
		t.Fatalf("expected summary to list damaged file, got %+v", summary.Damaged)
	}

	// The record must have been preserved unchanged: a following verify
	// run (still without force) must report DMG again, not ok/upd.
	events2, _ := runSync(t, cfg, []string{root})
	dmg2 := classificationsFor(events2, event.StatusDamage)
	if len(dmg2) != 1 {
		t.Fatalf("expected damage to persist across runs without force, got %v", events2)
	}
}

// Scenario 4: forced repair.
func TestForcedRepair(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.bin")
	writeFile(t, aPath, []byte("hello"))

	cfg := baseConfig()
	cfg.Update = true
	runSync(t, cfg, []string{root})

	info, _ := os.Stat(aPath)
	originalMtime := info.ModTime()
	writeFile(t, aPath, []byte("HELLO"))
	setMtime(t, aPath, originalMtime)

	cfg.Force = true
	events, summary := runSync(t, cfg, []string{root})
	if !summary.HasFailures() {
		t.Fatal("forced repair run should still report failure for this run")
	}
	dmg := classificationsFor(events, event.StatusDamage)
	if len(dmg) != 1 {
		t.Fatalf("expected DMG to still be reported: %v", events)
	}

	// With the repaired index in place, a subsequent plain verify should
	// be clean.
	cfg.Force = false
	cfg.Update = false
	_, summary2 := runSync(t, cfg, []string{root})
	if summary2.HasFailures() {
		t.Fatalf("expected clean run after forced repair, got %+v", summary2)
	}
}

// Scenario 5: ignore inheritance.
func TestIgnoreInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".chkbitignore"), []byte("*.tmp\n"))
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "x.tmp"), []byte("ignored"))
	writeFile(t, filepath.Join(sub, "keep.bin"), []byte("kept"))

	cfg := baseConfig()
	cfg.Update = true
	events, _ := runSync(t, cfg, []string{root})

	ign := classificationsFor(events, event.StatusIgnore)
	found := false
	for _, p := range ign {
		if p == filepath.Join(sub, "x.tmp") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected x.tmp to be ignored, got %v", ign)
	}

	raw, err := os.ReadFile(filepath.Join(sub, ".chkbit"))
	if err != nil {
		t.Fatalf("expected sub index to exist: %v", err)
	}
	if string(raw) == "" {
		t.Fatal("expected non-empty sub index")
	}
	if strings.Contains(string(raw), "x.tmp") {
		t.Fatalf("ignored file must not appear in saved index: %s", raw)
	}
}

// Scenario 6: index tamper.
func TestIndexTamper(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.bin")
	writeFile(t, aPath, []byte("hello"))

	cfg := baseConfig()
	cfg.Update = true
	runSync(t, cfg, []string{root})

	idxPath := filepath.Join(root, ".chkbit")
	raw, err := os.ReadFile(idxPath)
	if err != nil {
		t.Fatal(err)
	}
	tampered := []byte(string(raw))
	// Flip one byte inside the JSON body (avoid the very first/last brace
	// to guarantee we're corrupting content, not just structure).
	mid := len(tampered) / 2
	tampered[mid] ^= 0xFF
	if err := os.WriteFile(idxPath, tampered, 0o644); err != nil {
		t.Fatal(err)
	}

	events, _ := runSync(t, cfg, []string{root})
	eix := classificationsFor(events, event.StatusIndexError)
	if len(eix) != 1 || eix[0] != idxPath {
		t.Fatalf("expected EIX for %s, got %v", idxPath, eix)
	}

	// Since old failed to load cleanly, a.bin must be treated as NEW, and
	// the index must be rewritten self-consistently.
	newEvents := classificationsFor(events, event.StatusNew)
	if len(newEvents) != 1 || newEvents[0] != aPath {
		t.Fatalf("expected a.bin to be reported new after index damage, got %v", events)
	}

	rewritten, err := os.ReadFile(idxPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(rewritten) == string(tampered) {
		t.Fatal("expected index to have been rewritten")
	}
}

// Invariant 8: concurrency safety across worker counts.
func TestConcurrencySafetyAcrossWorkerCounts(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		sub := filepath.Join(root, "d"+string(rune('a'+i)))
		if err := os.Mkdir(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(sub, "f.bin"), []byte("content"))
	}

	var totals []int
	for _, n := range []int{1, 2, 8, 32} {
		cfg := baseConfig()
		cfg.NumWorkers = n
		cfg.Update = true
		_, summary := runSync(t, cfg, []string{root})
		totals = append(totals, summary.Total)
	}
	workerCounts := []int{1, 2, 8, 32}
	for i, total := range totals {
		if total != totals[0] {
			t.Fatalf("worker count %d produced total=%d, expected %d", workerCounts[i], total, totals[0])
		}
	}
}

// Cancellation: engine should terminate promptly instead of hanging.
func TestCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		sub := filepath.Join(root, "d"+string(rune('a'+i)))
		os.Mkdir(sub, 0o755)
		writeFile(t, filepath.Join(sub, "f.bin"), []byte("content"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := baseConfig()
	e := New(cfg, logging.RootLogger.Sublogger("test-cancel"))
	events := e.Run(ctx, []string{root})

	var sink Sink
	done := make(chan Summary, 1)
	go func() { done <- sink.Drain(events) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled engine run did not terminate")
	}
}
