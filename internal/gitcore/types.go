package gitcore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var signatureRe = regexp.MustCompile("[<>]")

// Hash represents a 40-character hex-encoded SHA-1 Git object identifier.
type Hash string

// NewHash validates a 40-character hex string and returns it as a Hash.
func NewHash(s string) (Hash, error) {
	if len(s) != 40 {
		return "", fmt.Errorf("invalid hash length: %d", len(s))
	}
	if _, err := decodeHexOID(s); err != nil {
		return "", fmt.Errorf("invalid hash: %w", err)
	}
	return Hash(s), nil
}

// Short returns the first shortOIDLen characters of the hash, or the full
// hash if it is already shorter (spec §4.1 "Truncate").
func (h Hash) Short() string {
	if len(h) < shortOIDLen {
		return string(h)
	}
	return string(h)[:shortOIDLen]
}

// Object is a generic stored Git object.
type Object interface {
	Type() ObjectType
}

// ObjectType enumerates the three object kinds this core stores and reads
// (spec §3). Unlike upstream git there is no Tag kind — annotated tags are
// out of scope.
type ObjectType int

const (
	NoneObject ObjectType = iota
	CommitObject
	TreeObject
	BlobObject
)

const (
	objectTypeCommit = "commit"
	objectTypeTree   = "tree"
	objectTypeBlob   = "blob"
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return objectTypeCommit
	case TreeObject:
		return objectTypeTree
	case BlobObject:
		return objectTypeBlob
	default:
		return "unknown"
	}
}

// StrToObjectType converts a serialized object-kind word to an ObjectType.
func StrToObjectType(s string) ObjectType {
	switch s {
	case objectTypeCommit:
		return CommitObject
	case objectTypeTree:
		return TreeObject
	case objectTypeBlob:
		return BlobObject
	default:
		return NoneObject
	}
}

// Signature is the author or committer of a commit (spec §3 "Author").
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String formats a Signature the way it is serialized into a commit object:
// "<name> <<email>> <unix-seconds> <±HHMM>".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

// NewSignature parses a serialized signature line: "Name <email> unix-ts tz".
func NewSignature(line string) (Signature, error) {
	parts := signatureRe.Split(line, -1)
	if len(parts) != 3 {
		return Signature{}, fmt.Errorf("invalid signature line: %q", line)
	}

	name := strings.TrimSpace(parts[0])
	email := strings.TrimSpace(parts[1])

	timePart := strings.TrimSpace(parts[2])
	timeFields := strings.Fields(timePart)
	if len(timeFields) == 0 {
		return Signature{}, fmt.Errorf("invalid signature line: missing timestamp: %q", line)
	}

	unixTime, err := strconv.ParseInt(timeFields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid signature line: invalid timestamp: %q", line)
	}

	loc := time.UTC
	if len(timeFields) >= 2 {
		if l := parseTimezone(timeFields[1]); l != nil {
			loc = l
		}
	}

	return Signature{Name: name, Email: email, When: time.Unix(unixTime, 0).In(loc)}, nil
}

// parseTimezone parses a git timezone offset ("+0530", "-0800") into a
// *time.Location, or nil if it isn't a valid offset.
func parseTimezone(tz string) *time.Location {
	if len(tz) != 5 {
		return nil
	}
	sign := 1
	switch tz[0] {
	case '-':
		sign = -1
	case '+':
	default:
		return nil
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil
	}
	mins, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil
	}
	return time.FixedZone(tz, sign*(hours*3600+mins*60))
}

// Commit is the parsed form of a commit object (spec §3).
type Commit struct {
	ID        Hash
	Tree      Hash
	Parent    Hash // empty for a root commit
	Author    Signature
	Committer Signature
	Message   string
}

func (c *Commit) Type() ObjectType { return CommitObject }

// TreeEntry is one named entry within a Tree: either a leaf (blob) or a
// subtree. Mode is one of "100644", "100755", "40000".
type TreeEntry struct {
	Name string
	Mode string
	ID   Hash
}

// IsSubtree reports whether this entry references another tree object.
func (e TreeEntry) IsSubtree() bool { return e.Mode == modeTree }

// Tree is the parsed/constructed form of a tree object (spec §3).
type Tree struct {
	ID      Hash
	Entries []TreeEntry
}

func (t *Tree) Type() ObjectType { return TreeObject }

// Get returns the entry named name, if present.
func (t *Tree) Get(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

const (
	modeRegular    = "100644"
	modeExecutable = "100755"
	modeTree       = "40000"
)

// normalizeMode maps a filesystem permission mode to the two file modes
// git records for blobs (spec §3).
func normalizeMode(perm uint32) string {
	if perm&0o111 != 0 {
		return modeExecutable
	}
	return modeRegular
}

// Blob is raw file content (spec §3); it has no behavior of its own because
// objects.go serializes straight from a []byte.
type Blob struct {
	ID      Hash
	Content []byte
}

func (b *Blob) Type() ObjectType { return BlobObject }
