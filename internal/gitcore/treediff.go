package gitcore

import "path"

// TreeDiffEntry is one recorded change at a leaf path: the entry as it was
// (Before) and as it is now (After). Exactly one may be nil; when both are
// present they are guaranteed unequal (spec §4.8).
type TreeDiffEntry struct {
	Before *TreeEntry
	After  *TreeEntry
}

// TreeDifference is a flat path -> (before, after) map; every key is a leaf
// path, never a directory (spec §4.8 "Resulting mapping is flat").
type TreeDifference map[string]TreeDiffEntry

// CompareTrees computes the recursive difference between two tree-ish OIDs
// (commits are dereferenced to their root tree; "" means the empty tree),
// populating diff. It is the entry point spec §4.8 calls compare_oids.
func CompareTrees(gitDir string, a, b Hash, prefix string, diff TreeDifference) error {
	if a == b {
		return nil
	}
	treeA, err := oidToTree(gitDir, a)
	if err != nil {
		treeA = &Tree{}
	}
	treeB, err := oidToTree(gitDir, b)
	if err != nil {
		treeB = &Tree{}
	}

	if err := detectDeletions(gitDir, treeA, treeB, prefix, diff); err != nil {
		return err
	}
	return detectAdditions(gitDir, treeA, treeB, prefix, diff)
}

// oidToTree reads oid and returns it as a Tree, dereferencing a commit to
// its root tree first. An empty oid yields the empty tree.
func oidToTree(gitDir string, oid Hash) (*Tree, error) {
	if oid == "" {
		return &Tree{}, nil
	}
	kind, body, err := readObjectRaw(gitDir, oid)
	if err != nil {
		return nil, err
	}
	switch kind {
	case CommitObject:
		c, err := parseCommitBody(oid, body)
		if err != nil {
			return nil, err
		}
		return oidToTree(gitDir, c.Tree)
	case TreeObject:
		return parseTreeBody(oid, body)
	default:
		return nil, &HintedError{Message: "expected commit or tree object", Wrapped: ErrKindMismatch}
	}
}

func subtreeOID(e TreeEntry) Hash {
	if e.IsSubtree() {
		return e.ID
	}
	return ""
}

func equalTreeEntries(a, b TreeEntry) bool {
	return a.Mode == b.Mode && a.ID == b.ID
}

func joinTreePath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// detectDeletions walks a's entries, recording removals and recursing into
// any pair of subtrees (spec §4.8 "detect_deletions").
//
// A recorded entry's Before/After never holds a subtree-mode TreeEntry: a
// subtree side is always either fully matched against its counterpart
// (recursion handles it, no record here) or absent, in which case this path
// only carries whichever side is a genuine leaf. That keeps every record
// blob-level, which is what the migration planner (§4.9) and workspace
// applier expect Before/After to be.
func detectDeletions(gitDir string, a, b *Tree, prefix string, diff TreeDifference) error {
	for _, entry := range a.Entries {
		entry := entry
		other, found := b.Get(entry.Name)

		aOID := subtreeOID(entry)
		var bOID Hash
		if found {
			if equalTreeEntries(entry, other) {
				continue
			}
			bOID = subtreeOID(other)
		}

		p := joinTreePath(prefix, entry.Name)
		if err := CompareTrees(gitDir, aOID, bOID, p, diff); err != nil {
			return err
		}

		if aOID != "" && bOID != "" {
			// Both sides are subtrees; the recursive call above already
			// recorded every difference beneath this path.
			continue
		}

		var rec TreeDiffEntry
		if aOID == "" {
			rec.Before = &entry
		}
		if found && bOID == "" {
			o := other
			rec.After = &o
		}
		if rec.Before == nil && rec.After == nil {
			// A whole subtree was removed with nothing replacing it at this
			// name; the recursive call already fanned that out leaf by leaf.
			continue
		}
		diff[p] = rec
	}
	return nil
}

// detectAdditions walks b's entries not present in a, recording additions
// and recursing into added subtrees (spec §4.8 "detect_additions").
func detectAdditions(gitDir string, a, b *Tree, prefix string, diff TreeDifference) error {
	for _, entry := range b.Entries {
		entry := entry
		if _, found := a.Get(entry.Name); found {
			continue
		}
		p := joinTreePath(prefix, entry.Name)
		if entry.IsSubtree() {
			if err := CompareTrees(gitDir, "", entry.ID, p, diff); err != nil {
				return err
			}
			continue
		}
		rec := entry
		diff[p] = TreeDiffEntry{After: &rec}
	}
	return nil
}
