// Package hashing defines the hash algorithm tag used for FileRecords and
// the streaming file hasher. The Algorithm type follows the tagged-algorithm
// pattern used by the teacher's synchronization/hashing package: a small
// value type with text (de)serialization and a Factory method, rather than
// passing around raw hash.Hash constructors.
package hashing

import (
	"crypto/md5"
	"crypto/sha512"
	"hash"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Algorithm identifies the hash function used to produce a FileRecord's
// digest. It is stored on disk as its lowercase name ("md5", "sha512",
// "blake3") and must remain stable across index versions.
type Algorithm uint8

const (
	// AlgorithmUnknown is the zero value and is never valid on disk.
	AlgorithmUnknown Algorithm = iota
	// AlgorithmMD5 selects MD5. Weak, but kept for compatibility with
	// existing indexes and because collision resistance (not
	// preimage/second-preimage resistance) is all the spec requires.
	AlgorithmMD5
	// AlgorithmSHA512 selects SHA-512.
	AlgorithmSHA512
	// AlgorithmBlake3 selects BLAKE3. The engine's default.
	AlgorithmBlake3
)

// DefaultAlgorithm is the algorithm new files are hashed with absent an
// existing index record specifying otherwise.
const DefaultAlgorithm = AlgorithmBlake3

// ParseAlgorithm converts a configuration-facing or on-disk algorithm name
// into an Algorithm. An unrecognized name is a fatal configuration error
// per spec.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "md5":
		return AlgorithmMD5, nil
	case "sha512":
		return AlgorithmSHA512, nil
	case "blake3":
		return AlgorithmBlake3, nil
	default:
		return AlgorithmUnknown, errors.Errorf("algo '%s' is unknown", name)
	}
}

// String returns the on-disk/CLI representation of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmMD5:
		return "md5"
	case AlgorithmSHA512:
		return "sha512"
	case AlgorithmBlake3:
		return "blake3"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if a == AlgorithmUnknown {
		return nil, errors.New("cannot marshal unknown algorithm")
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Factory returns a constructor for the algorithm's hash.Hash
// implementation. It panics on AlgorithmUnknown since that value should
// never survive past configuration/index-load validation.
func (a Algorithm) Factory() func() hash.Hash {
	switch a {
	case AlgorithmMD5:
		return md5.New
	case AlgorithmSHA512:
		return sha512.New
	case AlgorithmBlake3:
		return func() hash.Hash { return blake3.New() }
	default:
		panic("unknown or unset hash algorithm")
	}
}
