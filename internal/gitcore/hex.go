package gitcore

import (
	"encoding/hex"
	"fmt"
)

// shortOIDLen is the number of leading hex characters git displays for an
// abbreviated object id. The source fixes this at 7; real git derives it from
// core.abbrev (default 7). Making it configurable is future work (spec §9).
const shortOIDLen = 7

// decodeHexOID decodes a 40-character hex string into its raw 20 bytes.
func decodeHexOID(s string) ([20]byte, error) {
	var out [20]byte
	if len(s) != 40 {
		return out, fmt.Errorf("decodeHexOID: expected 40 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("decodeHexOID: %w", err)
	}
	copy(out[:], b)
	return out, nil
}

// packTreeRecord packs one tree entry as "<mode> <name>\0<20-byte-oid>", the
// record format spec §3/§6 defines for tree object bodies.
func packTreeRecord(mode, name string, oid Hash) ([]byte, error) {
	raw, err := decodeHexOID(string(oid))
	if err != nil {
		return nil, fmt.Errorf("packTreeRecord: %w", err)
	}
	buf := make([]byte, 0, len(mode)+1+len(name)+1+20)
	buf = append(buf, mode...)
	buf = append(buf, ' ')
	buf = append(buf, name...)
	buf = append(buf, 0)
	buf = append(buf, raw[:]...)
	return buf, nil
}

// splitFirstByte splits s on the first occurrence of sep, returning
// (nil, s, false) if sep does not occur.
func splitFirstByte(s []byte, sep byte) (before, after []byte, found bool) {
	for i, b := range s {
		if b == sep {
			return s[:i], s[i+1:], true
		}
	}
	return nil, s, false
}
