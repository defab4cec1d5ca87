package gitcore

import (
	"fmt"
	"io/fs"
	"sort"
)

// StatusCode is a single-column status letter in the style of `git status
// --porcelain`'s XY format (spec §2 "For status/diff, the current HEAD tree
// is compared against the index (staged) and against the workspace
// (unstaged)").
type StatusCode byte

const (
	StatusUnmodified StatusCode = ' '
	StatusAdded      StatusCode = 'A'
	StatusModified   StatusCode = 'M'
	StatusDeleted    StatusCode = 'D'
	StatusUntracked  StatusCode = '?'
)

// FileStatus is one path's two-column status: Index compares HEAD to the
// index (what would be committed), Workspace compares the index to the
// working tree (what isn't yet staged).
type FileStatus struct {
	Path      string
	Index     StatusCode
	Workspace StatusCode
}

// WorkingTreeStatus is the full comparison result for a repository: HEAD vs
// index vs workspace, one entry per path that differs on at least one side.
// Rendering it (porcelain or otherwise) is a caller concern (spec §1 "Out of
// scope: ... human-readable status/diff rendering").
type WorkingTreeStatus struct {
	Files []FileStatus
}

// ComputeStatus compares HEAD's tree against the index (staged changes) and
// the index against the workspace (unstaged changes and untracked files),
// the two comparisons spec §2's data-flow description assigns to status/diff.
func ComputeStatus(repo *Repository) (*WorkingTreeStatus, error) {
	gitDir := repo.GitDir()

	idx, err := LoadIndex(gitDir)
	if err != nil {
		return nil, fmt.Errorf("ComputeStatus: %w", err)
	}

	headEntries, err := headBlobsByPath(gitDir, repo)
	if err != nil {
		return nil, fmt.Errorf("ComputeStatus: %w", err)
	}

	ws := repo.Workspace()
	wsPaths, err := ws.ListFiles("")
	if err != nil {
		return nil, fmt.Errorf("ComputeStatus: %w", err)
	}
	wsSet := make(map[string]bool, len(wsPaths))
	for _, p := range wsPaths {
		wsSet[p] = true
	}

	byPath := make(map[string]*FileStatus)
	get := func(p string) *FileStatus {
		fs, ok := byPath[p]
		if !ok {
			fs = &FileStatus{Path: p, Index: StatusUnmodified, Workspace: StatusUnmodified}
			byPath[p] = fs
		}
		return fs
	}

	// HEAD vs index: staged column.
	for _, p := range idx.Paths() {
		e, _ := idx.Get(p)
		fs := get(p)
		head, inHead := headEntries[p]
		switch {
		case !inHead:
			fs.Index = StatusAdded
		case head.ID != e.Hash || head.Mode != e.modeString():
			fs.Index = StatusModified
		default:
			fs.Index = StatusUnmodified
		}
	}
	for p := range headEntries {
		if _, tracked := idx.Get(p); !tracked {
			get(p).Index = StatusDeleted
		}
	}

	// Index vs workspace: unstaged column.
	for _, p := range idx.Paths() {
		e, _ := idx.Get(p)
		fs := get(p)
		if !wsSet[p] {
			fs.Workspace = StatusDeleted
			continue
		}
		info, err := ws.StatFile(p)
		if err != nil {
			return nil, fmt.Errorf("ComputeStatus: %s: %w", p, err)
		}
		changed, err := workspaceFileChanged(ws, e, info)
		if err != nil {
			return nil, fmt.Errorf("ComputeStatus: %s: %w", p, err)
		}
		if changed {
			fs.Workspace = StatusModified
		}
	}

	// Untracked: in the workspace, not in the index.
	for p := range wsSet {
		if _, tracked := idx.Get(p); tracked {
			continue
		}
		fs := get(p)
		fs.Index = StatusUntracked
		fs.Workspace = StatusUntracked
	}

	var files []FileStatus
	for _, fs := range byPath {
		if fs.Index == StatusUnmodified && fs.Workspace == StatusUnmodified {
			continue
		}
		files = append(files, *fs)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &WorkingTreeStatus{Files: files}, nil
}

// workspaceFileChanged reports whether the on-disk file at e.Path differs
// from what the index records, using the stat-based fast path before falling
// back to content hashing (spec §4.3 "stat_match / stat_times_match"). It
// does not perform the cache-repair RefreshStat describes for a hash match
// with differing timestamps: Status works from a fresh LoadIndex that it
// never Saves, so there is no cached copy here to repair.
func workspaceFileChanged(ws *Workspace, e *IndexEntry, info fs.FileInfo) (bool, error) {
	if StatMatch(e, info) && StatTimesMatch(e, info) {
		return false, nil
	}

	content, err := ws.ReadFile(e.Path)
	if err != nil {
		return false, err
	}
	oid := hashObject(frame(BlobObject, content))
	return oid != e.Hash, nil
}

// headBlobsByPath flattens HEAD's tree (if any) into a path -> TreeEntry map,
// the same shape a tree-diff works with, so status can compare against the
// index's flat path space directly.
func headBlobsByPath(gitDir string, repo *Repository) (map[string]TreeEntry, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	return FlattenTree(gitDir, head)
}

// FlattenTree resolves a tree-ish OID (a tree or a commit; "" for none) and
// flattens it into a path -> TreeEntry map, giving callers outside this
// package the same flat view tree-diff and status use internally.
func FlattenTree(gitDir string, oid Hash) (map[string]TreeEntry, error) {
	out := make(map[string]TreeEntry)
	if oid == "" {
		return out, nil
	}
	tree, err := oidToTree(gitDir, oid)
	if err != nil {
		return nil, err
	}
	if err := flattenTree(gitDir, tree, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

// flattenTree recursively walks tree, recording every leaf entry under its
// full slash-joined path into out.
func flattenTree(gitDir string, tree *Tree, prefix string, out map[string]TreeEntry) error {
	for _, entry := range tree.Entries {
		p := joinTreePath(prefix, entry.Name)
		if !entry.IsSubtree() {
			out[p] = entry
			continue
		}
		sub, err := ReadTree(gitDir, entry.ID)
		if err != nil {
			return err
		}
		if err := flattenTree(gitDir, sub, p, out); err != nil {
			return err
		}
	}
	return nil
}
