package gitcore

import (
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// treeNode accumulates index entries into a nested, path-sorted shape ready
// for post-order serialization. Unlike a plain map, it remembers the order
// names were first seen in, which — because callers add entries in ascending
// path order (spec §3 "insertion order mirrors path order") — keeps each
// level's records in the order git expects on disk.
type treeNode struct {
	order    []string
	leaves   map[string]TreeEntry
	subtrees map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{leaves: make(map[string]TreeEntry), subtrees: make(map[string]*treeNode)}
}

func (n *treeNode) childOrCreate(name string) *treeNode {
	if child, ok := n.subtrees[name]; ok {
		return child
	}
	child := newTreeNode()
	n.subtrees[name] = child
	n.order = append(n.order, name)
	return child
}

func (n *treeNode) addLeaf(name string, entry TreeEntry) {
	if _, exists := n.leaves[name]; !exists {
		if _, isDir := n.subtrees[name]; !isDir {
			n.order = append(n.order, name)
		}
	}
	n.leaves[name] = entry
}

// insert walks parts, creating intermediate subtrees as needed, and places
// entry (already carrying the correct leaf mode and OID) at the final
// component.
func (n *treeNode) insert(parts []string, entry TreeEntry) {
	if len(parts) == 1 {
		entry.Name = parts[0]
		n.addLeaf(parts[0], entry)
		return
	}
	n.childOrCreate(parts[0]).insert(parts[1:], entry)
}

// buildTreeFromEntries arranges a flat, path-sorted list of (path, mode, oid)
// leaves into the nested treeNode shape buildTree serializes bottom-up.
func buildTreeFromEntries(paths []string, modes []string, oids []Hash) *treeNode {
	root := newTreeNode()
	for i, p := range paths {
		parts := strings.Split(p, "/")
		root.insert(parts, TreeEntry{Mode: modes[i], ID: oids[i]})
	}
	return root
}

// buildTree stores n and every descendant subtree, children before parents
// (spec §4.5(c): "store children before parents"), and returns the OID of
// the tree object for n.
func buildTree(gitDir string, n *treeNode) (Hash, error) {
	entries := make([]TreeEntry, 0, len(n.order))
	for _, name := range n.order {
		if leaf, ok := n.leaves[name]; ok {
			entries = append(entries, leaf)
			continue
		}
		child := n.subtrees[name]
		childOID, err := buildTree(gitDir, child)
		if err != nil {
			return "", err
		}
		entries = append(entries, TreeEntry{Name: name, Mode: modeTree, ID: childOID})
	}
	return storeTree(gitDir, entries)
}

// BuildTreeFromIndex builds and stores the full tree graph for a sorted list
// of staged paths, returning the OID of the root tree. paths must already be
// in ascending path order (as the index guarantees, spec I4).
func BuildTreeFromIndex(gitDir string, paths []string, modes []string, oids []Hash) (Hash, error) {
	if len(paths) != len(modes) || len(paths) != len(oids) {
		return "", fmt.Errorf("BuildTreeFromIndex: paths/modes/oids length mismatch")
	}
	root := buildTreeFromEntries(paths, modes, oids)
	return buildTree(gitDir, root)
}

// serializeTree concatenates entries into a tree object's body.
func serializeTree(entries []TreeEntry) ([]byte, error) {
	var body []byte
	for _, e := range entries {
		rec, err := packTreeRecord(e.Mode, e.Name, e.ID)
		if err != nil {
			return nil, fmt.Errorf("serializeTree: entry %q: %w", e.Name, err)
		}
		body = append(body, rec...)
	}
	return body, nil
}

// storeTree serializes and stores a tree object, returning its OID.
func storeTree(gitDir string, entries []TreeEntry) (Hash, error) {
	body, err := serializeTree(entries)
	if err != nil {
		return "", err
	}
	return storeObject(gitDir, TreeObject, body)
}

// ReadTree reads and parses a tree object.
func ReadTree(gitDir string, oid Hash) (*Tree, error) {
	kind, body, err := readObjectRaw(gitDir, oid)
	if err != nil {
		return nil, err
	}
	if kind != TreeObject {
		return nil, fmt.Errorf("ReadTree: %s: expected tree, got %s: %w", oid, kind, ErrKindMismatch)
	}
	return parseTreeBody(oid, body)
}

// parseTreeBody parses a tree object's body into a sequence of TreeEntry
// records: "<mode> <name>\0<20 raw oid bytes>" repeated (spec §6).
func parseTreeBody(id Hash, body []byte) (*Tree, error) {
	t := &Tree{ID: id}
	rest := body
	for len(rest) > 0 {
		modeBytes, after, ok := splitFirstByte(rest, ' ')
		if !ok {
			return nil, fmt.Errorf("parseTreeBody: %s: truncated mode: %w", id, ErrCorrupt)
		}
		nameBytes, after, ok := splitFirstByte(after, 0)
		if !ok {
			return nil, fmt.Errorf("parseTreeBody: %s: truncated name: %w", id, ErrCorrupt)
		}
		if len(after) < 20 {
			return nil, fmt.Errorf("parseTreeBody: %s: truncated oid: %w", id, ErrCorrupt)
		}
		oid := Hash(hex.EncodeToString(after[:20]))
		t.Entries = append(t.Entries, TreeEntry{Mode: string(modeBytes), Name: string(nameBytes), ID: oid})
		rest = after[20:]
	}
	return t, nil
}

// ReadTreeEntryAtPath resolves a slash-separated path against a tree OID,
// dereferencing commits to their root tree first (spec §4.8 "compare_oids").
func ReadTreeEntryAtPath(gitDir string, root Hash, p string) (TreeEntry, bool, error) {
	root, err := RootTreeOID(gitDir, root)
	if err != nil {
		return TreeEntry{}, false, err
	}
	if p == "" || p == "." {
		return TreeEntry{Name: "", Mode: modeTree, ID: root}, true, nil
	}
	parts := strings.Split(path.Clean(p), "/")
	cur := root
	var entry TreeEntry
	for i, part := range parts {
		tree, err := ReadTree(gitDir, cur)
		if err != nil {
			return TreeEntry{}, false, err
		}
		e, ok := tree.Get(part)
		if !ok {
			return TreeEntry{}, false, nil
		}
		entry = e
		if i < len(parts)-1 {
			if !e.IsSubtree() {
				return TreeEntry{}, false, nil
			}
			cur = e.ID
		}
	}
	return entry, true, nil
}

// RootTreeOID dereferences a commit OID to its tree OID; a tree OID (or the
// zero value for "no commit yet") passes through unchanged.
func RootTreeOID(gitDir string, oid Hash) (Hash, error) {
	if oid == "" {
		return "", nil
	}
	kind, body, err := readObjectRaw(gitDir, oid)
	if err != nil {
		return "", err
	}
	switch kind {
	case TreeObject:
		return oid, nil
	case CommitObject:
		c, err := parseCommitBody(oid, body)
		if err != nil {
			return "", err
		}
		return c.Tree, nil
	default:
		return "", fmt.Errorf("RootTreeOID: %s: expected commit or tree, got %s: %w", oid, kind, ErrKindMismatch)
	}
}
