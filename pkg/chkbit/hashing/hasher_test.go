package hashing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("unable to write temp file: %v", err)
	}
	return path
}

func TestHashFileMD5KnownVector(t *testing.T) {
	path := writeTemp(t, []byte("hello"))
	digest, total, err := HashFile(path, AlgorithmMD5, nil)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 bytes, got %d", total)
	}
	// MD5("hello") is a well-known vector.
	const expected = "5d41402abc4b2a76b9719d911017c592"
	if digest != expected {
		t.Fatalf("expected digest %s, got %s", expected, digest)
	}
}

func TestHashFileProgressCallback(t *testing.T) {
	content := make([]byte, ChunkSize*2+10)
	path := writeTemp(t, content)

	var calls int
	var total int
	_, n, err := HashFile(path, AlgorithmSHA512, func(bytesRead int) {
		calls++
		total += bytesRead
	})
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if int(n) != len(content) {
		t.Fatalf("expected %d total bytes, got %d", len(content), n)
	}
	if total != len(content) {
		t.Fatalf("expected progress to sum to %d, got %d", len(content), total)
	}
	if calls != 3 {
		t.Fatalf("expected 3 chunk callbacks, got %d", calls)
	}
}

func TestHashFileAlgorithmsDiffer(t *testing.T) {
	path := writeTemp(t, []byte("the quick brown fox"))
	md5Digest, _, err := HashFile(path, AlgorithmMD5, nil)
	if err != nil {
		t.Fatal(err)
	}
	blakeDigest, _, err := HashFile(path, AlgorithmBlake3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if md5Digest == blakeDigest {
		t.Fatalf("expected different digests across algorithms")
	}
}

func TestHashTextIsMD5Regardless(t *testing.T) {
	// HashText must always use MD5 for on-disk compatibility of idx_hash,
	// independent of any file-hashing algorithm configuration.
	digest := HashText(`{"a.txt":{"mod":1,"a":"blake3","h":"deadbeef"}}`)
	if len(digest) != 32 {
		t.Fatalf("expected 32-character hex MD5 digest, got %d chars", len(digest))
	}
}

func TestParseAlgorithmRejectsUnknown(t *testing.T) {
	if _, err := ParseAlgorithm("sha1"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestAlgorithmTextRoundTrip(t *testing.T) {
	for _, a := range []Algorithm{AlgorithmMD5, AlgorithmSHA512, AlgorithmBlake3} {
		text, err := a.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		var round Algorithm
		if err := round.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText failed: %v", err)
		}
		if round != a {
			t.Fatalf("round trip mismatch: %v != %v", round, a)
		}
	}
}
