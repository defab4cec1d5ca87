package gitcore

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pjbgf/sha1cd"
)

// hashObject computes the OID of a serialized object: SHA-1 of the whole
// framed byte sequence (spec §3). sha1cd.New swaps in for crypto/sha1 here
// the same way go-git's plumbing/hasher.go does — it is a collision-detecting,
// drop-in hash.Hash, and the object database is exactly where that
// protection matters.
func hashObject(framed []byte) Hash {
	h := sha1cd.New()
	h.Write(framed)
	return Hash(fmt.Sprintf("%x", h.Sum(nil)))
}

// frame prepends the "<kind> <size>\0" header spec §3/§6 define.
func frame(kind ObjectType, body []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", kind, len(body))
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out
}

// objectPath returns <objects-root>/<oid[0:2]>/<oid[2:]> (spec §4.1).
func objectPath(gitDir string, oid Hash) string {
	s := string(oid)
	return filepath.Join(gitDir, "objects", s[:2], s[2:])
}

// storeObject serializes, hashes, and durably writes an object, returning
// its OID. If the target path already exists the store is a no-op — the
// object database is idempotent over OID (spec §4.1).
func storeObject(gitDir string, kind ObjectType, body []byte) (Hash, error) {
	framed := frame(kind, body)
	oid := hashObject(framed)
	path := objectPath(gitDir, oid)

	if _, err := os.Stat(path); err == nil {
		return oid, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("storeObject: stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storeObject: mkdir %s: %w", dir, err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(framed); err != nil {
		return "", fmt.Errorf("storeObject: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("storeObject: compress: %w", err)
	}

	// Temp name must be collision-resistant across concurrent writers into
	// the same shard directory (spec §4.1/§5); uuid.New mirrors the
	// original_source Rust implementation's uuid::Uuid::new_v4() naming.
	tmpPath := filepath.Join(dir, uuid.New().String())
	if err := os.WriteFile(tmpPath, compressed.Bytes(), 0o444); err != nil {
		return "", fmt.Errorf("storeObject: write temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("storeObject: rename: %w", err)
	}

	slog.Debug("object stored", "oid", string(oid), "kind", kind.String(), "size", len(body))
	return oid, nil
}

// readObjectRaw reads and decompresses a loose object, returning its kind
// and body.
func readObjectRaw(gitDir string, oid Hash) (ObjectType, []byte, error) {
	path := objectPath(gitDir, oid)
	f, err := os.Open(path) //nolint:gosec // path built from a validated OID
	if err != nil {
		if os.IsNotExist(err) {
			return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrNotFound)
		}
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrIo)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrCorrupt)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrCorrupt)
	}

	header, body, ok := splitFirstByte(data, 0)
	if !ok {
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrCorrupt)
	}

	kindBytes, _, ok := splitFirstByte(header, ' ')
	if !ok {
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: %w", oid, ErrCorrupt)
	}

	kind := StrToObjectType(string(kindBytes))
	if kind == NoneObject {
		return NoneObject, nil, fmt.Errorf("readObjectRaw: %s: unrecognized kind %q: %w", oid, kindBytes, ErrCorrupt)
	}

	return kind, body, nil
}

// objectExists reports whether oid is present in the object store.
func objectExists(gitDir string, oid Hash) bool {
	_, err := os.Stat(objectPath(gitDir, oid))
	return err == nil
}

// prefixMatch lists every OID in the object store whose hex starts with
// prefix (len(prefix) >= 2), per spec §4.1.
func prefixMatch(gitDir, prefix string) ([]Hash, error) {
	if len(prefix) < 2 {
		return nil, fmt.Errorf("prefixMatch: prefix %q shorter than shard width", prefix)
	}
	shardDir := filepath.Join(gitDir, "objects", prefix[:2])
	entries, err := os.ReadDir(shardDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("prefixMatch: %w", err)
	}

	rest := prefix[2:]
	var out []Hash
	for _, e := range entries {
		if len(e.Name()) >= len(rest) && e.Name()[:len(rest)] == rest {
			out = append(out, Hash(prefix[:2]+e.Name()))
		}
	}
	return out, nil
}
