package index

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/chkbit-go/chkbit/pkg/chkbit/hashing"
)

// FormatVersion is the "v" field of the current on-disk index format.
const FormatVersion = 2

// onDiskRecord mirrors the JSON shape of one entry in "idx". Its field
// order matches the canonical encoding's field order (mod, a, h) since
// encoding/json marshals struct fields in declaration order.
type onDiskRecord struct {
	Mod *int64  `json:"mod"`
	A   string  `json:"a"`
	H   *string `json:"h"`
}

// fileV2 mirrors the top-level shape of a current-format index file.
type fileV2 struct {
	V       int             `json:"v"`
	Idx     json.RawMessage `json:"idx"`
	IdxHash string          `json:"idx_hash"`
}

// legacyEntry mirrors one element of the legacy "data" array.
type legacyEntry struct {
	Name string `json:"name"`
	Mod  int64  `json:"mod"`
	MD5  string `json:"md5"`
}

// EncodeCanonical produces the canonical compact serialization of an
// ordered set of records: object keys emitted in order, separators "," and
// ":", no whitespace. This exact byte sequence is both what gets written
// to disk under "idx" and what gets MD5-hashed to produce "idx_hash" —
// two implementations only interoperate if they agree on this byte-for-
// byte representation.
func EncodeCanonical(order []string, records map[string]Record) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return "", errors.Wrap(err, "unable to encode file name")
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		rec, ok := records[name]
		if !ok {
			return "", errors.Errorf("ordered key %q has no corresponding record", name)
		}
		recBytes, err := json.Marshal(onDiskRecord{
			Mod: rec.Mod,
			A:   rec.Algo.String(),
			H:   rec.Hash,
		})
		if err != nil {
			return "", errors.Wrap(err, "unable to encode record")
		}
		buf.Write(recBytes)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// EncodeFile produces the full on-disk document (including the "v" and
// "idx_hash" wrapper) for an ordered set of records.
func EncodeFile(order []string, records map[string]Record) ([]byte, string, error) {
	canonical, err := EncodeCanonical(order, records)
	if err != nil {
		return nil, "", err
	}
	idxHash := hashing.HashText(canonical)

	doc, err := json.Marshal(fileV2{
		V:       FormatVersion,
		Idx:     json.RawMessage(canonical),
		IdxHash: idxHash,
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to encode index document")
	}
	return doc, idxHash, nil
}

// Decoded is the result of parsing an on-disk index file.
type Decoded struct {
	// Order is the key order as it appeared in the "idx" object, preserved
	// so that a verification re-encode produces byte-identical output to
	// what was read.
	Order []string
	// Records is the parsed record set, keyed by file name.
	Records map[string]Record
	// HashVerified is true if idx_hash matched the canonical re-encoding
	// of idx. It is always true for the legacy format, which carries no
	// self-checksum.
	HashVerified bool
	// Legacy indicates the file was in the legacy "data" format.
	Legacy bool
}

// Decode parses raw index file bytes, handling both the current
// self-verifying format and the legacy "data" format.
func Decode(raw []byte) (*Decoded, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, errors.Wrap(err, "unable to parse index file as JSON")
	}

	if dataField, ok := probe["data"]; ok {
		return decodeLegacy(dataField)
	}
	if idxField, ok := probe["idx"]; ok {
		return decodeV2(idxField, probe["idx_hash"])
	}
	return nil, errors.New("index file has neither \"idx\" nor \"data\" field")
}

func decodeLegacy(dataField json.RawMessage) (*Decoded, error) {
	var encoded string
	if err := json.Unmarshal(dataField, &encoded); err != nil {
		return nil, errors.Wrap(err, "unable to parse legacy \"data\" string")
	}

	var entries []legacyEntry
	if err := json.Unmarshal([]byte(encoded), &entries); err != nil {
		return nil, errors.Wrap(err, "unable to parse legacy \"data\" array")
	}

	order := make([]string, 0, len(entries))
	records := make(map[string]Record, len(entries))
	for _, e := range entries {
		if _, exists := records[e.Name]; !exists {
			order = append(order, e.Name)
		}
		mod := e.Mod
		hash := e.MD5
		records[e.Name] = Record{
			Mod:  &mod,
			Algo: hashing.AlgorithmMD5,
			Hash: &hash,
		}
	}

	return &Decoded{
		Order:        order,
		Records:      records,
		HashVerified: true,
		Legacy:       true,
	}, nil
}

func decodeV2(idxField, idxHashField json.RawMessage) (*Decoded, error) {
	order, records, err := decodeOrderedIdx(idxField)
	if err != nil {
		return nil, err
	}

	var storedHash string
	if len(idxHashField) > 0 {
		if err := json.Unmarshal(idxHashField, &storedHash); err != nil {
			return nil, errors.Wrap(err, "unable to parse idx_hash")
		}
	}

	canonical, err := EncodeCanonical(order, records)
	if err != nil {
		return nil, err
	}
	verified := storedHash != "" && hashing.HashText(canonical) == storedHash

	return &Decoded{
		Order:        order,
		Records:      records,
		HashVerified: verified,
	}, nil
}

// decodeOrderedIdx parses the "idx" object token-by-token to recover the
// on-disk key order, which a plain json.Unmarshal into a map would
// discard.
func decodeOrderedIdx(raw json.RawMessage) ([]string, map[string]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to read idx object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("idx is not a JSON object")
	}

	var order []string
	records := make(map[string]Record)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to read idx key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, errors.New("idx key is not a string")
		}

		var raw onDiskRecord
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, errors.Wrapf(err, "unable to decode record for %q", key)
		}

		var algo hashing.Algorithm
		if raw.A == "" {
			// Legacy per-record shape predating the "a" field: always MD5.
			algo = hashing.AlgorithmMD5
		} else if algo, err = hashing.ParseAlgorithm(raw.A); err != nil {
			return nil, nil, errors.Wrapf(err, "record %q", key)
		}

		if _, exists := records[key]; !exists {
			order = append(order, key)
		}
		records[key] = Record{Mod: raw.Mod, Algo: algo, Hash: raw.H}
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, errors.Wrap(err, "unable to read closing brace")
	}

	return order, records, nil
}
