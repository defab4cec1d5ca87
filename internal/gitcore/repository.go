package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Repository is a handle on a single Git-compatible repository: its object
// store, index, refs, and working tree, all addressed by filesystem path.
// Unlike a reporting tool, it holds no in-memory snapshot of history — every
// read goes straight to the object database (spec §2 "Data flow").
type Repository struct {
	gitDir  string
	workDir string
}

// Init creates a new repository's .git scaffolding under path: the objects
// and refs/heads directories (spec §6 "init <path>"). It is idempotent over
// an already-initialized directory.
func Init(path string) (*Repository, error) {
	gitDir := filepath.Join(path, ".git")
	for _, d := range []string{"objects", filepath.Join("refs", "heads")} {
		if err := os.MkdirAll(filepath.Join(gitDir, d), 0o755); err != nil {
			return nil, fmt.Errorf("Init: %w", err)
		}
	}
	return &Repository{gitDir: gitDir, workDir: path}, nil
}

// Open locates and opens the repository containing path, walking up through
// parent directories until a .git directory is found.
func Open(path string) (*Repository, error) {
	gitDir, workDir, err := findGitDirectory(path)
	if err != nil {
		return nil, err
	}
	if err := validateGitDirectory(gitDir); err != nil {
		return nil, err
	}
	return &Repository{gitDir: gitDir, workDir: workDir}, nil
}

// GitDir returns the path to the repository's .git directory.
func (r *Repository) GitDir() string { return r.gitDir }

// WorkDir returns the path to the repository's working directory.
func (r *Repository) WorkDir() string { return r.workDir }

// Refs returns a Refs bound to this repository's .git directory.
func (r *Repository) Refs() *Refs { return NewRefs(r.gitDir) }

// Workspace returns a Workspace bound to this repository's working tree.
func (r *Repository) Workspace() *Workspace { return NewWorkspace(r.workDir, r.gitDir) }

// Head returns the OID HEAD currently points to, or "" for a repository with
// no commits yet.
func (r *Repository) Head() (Hash, error) { return r.Refs().ReadHead() }

// GetTree reads and parses a tree object.
func (r *Repository) GetTree(oid Hash) (*Tree, error) { return ReadTree(r.gitDir, oid) }

// GetBlob reads a blob's raw content.
func (r *Repository) GetBlob(oid Hash) ([]byte, error) { return ReadBlob(r.gitDir, oid) }

// GetCommit reads and parses a commit object.
func (r *Repository) GetCommit(oid Hash) (*Commit, error) { return ReadCommit(r.gitDir, oid) }

// Resolve resolves a revision expression to an OID of the expected kind
// (spec §4.6).
func (r *Repository) Resolve(expr string, expected ObjectType) (Hash, error) {
	return NewRevisionResolver(r.gitDir, r.Refs(), expr).Resolve(expected)
}

// Add stages each path in paths: reads its current content, stores a blob,
// and records it in the index (spec §6 "add <path>…"). paths must be
// workspace-relative and already resolved to files (directory expansion is
// the caller's concern via Workspace.ListFiles).
func (r *Repository) Add(paths []string) error {
	idx, err := LoadIndex(r.gitDir)
	if err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	ws := r.Workspace()

	for _, p := range paths {
		content, err := ws.ReadFile(p)
		if err != nil {
			return fmt.Errorf("Add: %s: %w", p, err)
		}
		oid, err := StoreBlob(r.gitDir, content)
		if err != nil {
			return fmt.Errorf("Add: %s: %w", p, err)
		}
		info, err := ws.StatFile(p)
		if err != nil {
			return fmt.Errorf("Add: %s: %w", p, err)
		}
		idx.Add(p, oid, info)
	}

	return idx.Save()
}

// Commit builds a tree from the current index, stores a commit linking it to
// HEAD's current OID as parent, and advances HEAD to the new commit
// (spec §6 "commit [-m <msg>]"). author/committer and message are sourced by
// the caller (environment and -m/stdin are CLI concerns, spec §1).
func (r *Repository) Commit(author, committer Signature, message string) (Hash, error) {
	idx, err := LoadIndex(r.gitDir)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	paths := idx.Paths()
	modes := make([]string, len(paths))
	oids := make([]Hash, len(paths))
	for i, p := range paths {
		e, _ := idx.Get(p)
		modes[i] = e.modeString()
		oids[i] = e.Hash
	}

	treeOID, err := BuildTreeFromIndex(r.gitDir, paths, modes, oids)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	parent, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	commitOID, err := StoreCommit(r.gitDir, treeOID, parent, author, committer, message)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	if err := r.Refs().UpdateHead(commitOID); err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}
	return commitOID, nil
}

// CreateBranch creates refs/heads/<name> at start (spec §6 "branch <name>
// [<start>]"); start defaults to HEAD when empty.
func (r *Repository) CreateBranch(name, start string) error {
	if start == "" {
		start = "HEAD"
	}
	startOID, err := r.Resolve(start, CommitObject)
	if err != nil {
		return err
	}
	return r.Refs().CreateBranch(name, startOID)
}

// Checkout migrates the working tree and index from HEAD to the commit named
// by rev (spec §6 "checkout <rev>"). On success HEAD is advanced to the
// target commit (spec's out-of-scope symbolic refs mean HEAD always stores
// an OID directly, so checkout detaches in effect).
func (r *Repository) Checkout(rev string) error {
	target, err := r.Resolve(rev, CommitObject)
	if err != nil {
		return err
	}
	source, err := r.Head()
	if err != nil {
		return err
	}

	diff := make(TreeDifference)
	if err := CompareTrees(r.gitDir, source, target, "", diff); err != nil {
		return fmt.Errorf("Checkout: %w", err)
	}
	plan := PlanMigration(diff)

	ws := r.Workspace()
	if err := ws.ApplyMigration(plan, r.gitDir); err != nil {
		return fmt.Errorf("Checkout: %w", err)
	}

	idx, err := LoadIndex(r.gitDir)
	if err != nil {
		return fmt.Errorf("Checkout: %w", err)
	}
	if err := idx.ApplyMigration(plan, ws); err != nil {
		return fmt.Errorf("Checkout: %w", err)
	}
	idx.dirty = true
	if err := idx.Save(); err != nil {
		return fmt.Errorf("Checkout: %w", err)
	}

	return r.Refs().UpdateHead(target)
}

// findGitDirectory walks up from startPath to locate the .git directory.
func findGitDirectory(startPath string) (gitDir string, workDir string, err error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}

	currentPath := absPath
	for {
		gitPath := filepath.Join(currentPath, ".git")

		info, err := os.Stat(gitPath)
		if err == nil {
			if info.IsDir() {
				return gitPath, currentPath, nil
			}
			return handleGitFile(gitPath, currentPath)
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return "", "", fmt.Errorf("not a git repository (or any parent up to mount point): %s", startPath)
		}
		currentPath = parentPath
	}
}

// handleGitFile handles .git files (worktrees, submodules) with format "gitdir: <path>".
func handleGitFile(gitFilePath string, workDir string) (string, string, error) {
	content, err := os.ReadFile(gitFilePath) //nolint:gosec // gitFilePath derived from the caller's own path walk
	if err != nil {
		return "", "", fmt.Errorf("failed to read .git file: %w", err)
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", "", fmt.Errorf("invalid .git file format: %s", gitFilePath)
	}

	gitDir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(filepath.Dir(gitFilePath), gitDir)
	}
	gitDir = filepath.Clean(gitDir)

	if _, err := os.Stat(gitDir); err != nil {
		return "", "", fmt.Errorf("gitdir points to non-existent directory: %s", gitDir)
	}

	return gitDir, workDir, nil
}

// validateGitDirectory checks that gitDir exists, is a directory, and contains
// the expected Git internals (objects, refs).
func validateGitDirectory(gitDir string) error {
	info, err := os.Stat(gitDir)
	if err != nil {
		return fmt.Errorf("git directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("git path is not a directory: %s", gitDir)
	}

	for _, required := range []string{"objects", "refs"} {
		path := filepath.Join(gitDir, required)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("invalid git repository, missing: %s", required)
		}
	}
	return nil
}
