package hashing

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ChunkSize is the size of the buffer used when streaming a file through a
// hasher. Per spec this is fixed at 128 KiB.
const ChunkSize = 128 * 1024

// ProgressFunc is invoked after each chunk is hashed, receiving the number
// of bytes just processed. It is modeled as a plain observer callback
// rather than an async/channel construct, per the spec's guidance that the
// per-chunk progress hook is "a simple capability the hasher invokes after
// each read."
type ProgressFunc func(bytesRead int)

// HashFile streams path through algo's hash function, invoking progress
// after every chunk read, and returns the lowercase hex digest together
// with the total number of bytes hashed.
func HashFile(path string, algo Algorithm, progress ProgressFunc) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrap(err, "unable to open file")
	}
	defer f.Close()

	h := algo.Factory()()
	buffer := make([]byte, ChunkSize)
	var total int64
	for {
		n, err := f.Read(buffer)
		if n > 0 {
			if _, werr := h.Write(buffer[:n]); werr != nil {
				return "", 0, errors.Wrap(werr, "unable to update hash")
			}
			total += int64(n)
			if progress != nil {
				progress(n)
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return "", 0, errors.Wrap(err, "unable to read file")
		}
	}

	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// HashText computes the MD5 hex digest of text. It is used exclusively for
// the index self-checksum (idx_hash) and must remain MD5 for on-disk
// compatibility even when the engine's file-hashing default changes; this
// is an integrity marker, not a security boundary.
func HashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
