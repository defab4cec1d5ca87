package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// invalidNamePatterns is the invalid-branch/revision-name filter (spec §4.4):
// any match makes the name invalid. Modeled as a RegexSet equivalent — a
// plain slice of compiled patterns checked in order, since stdlib regexp has
// no combined-set matcher.
var invalidNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\.`),
	regexp.MustCompile(`/\.`),
	regexp.MustCompile(`\.\.`),
	regexp.MustCompile(`/$`),
	regexp.MustCompile(`\.lock$`),
	regexp.MustCompile(`@\{`),
	regexp.MustCompile(`[\x00-\x20*:?\[\\^=\x7f]`),
}

// isInvalidName reports whether name fails the branch/revision name filter.
func isInvalidName(name string) bool {
	if name == "" {
		return true
	}
	for _, re := range invalidNamePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Refs wraps the ref namespace rooted at gitDir (spec §4.4).
type Refs struct {
	gitDir string
}

// NewRefs returns a Refs rooted at gitDir.
func NewRefs(gitDir string) *Refs {
	return &Refs{gitDir: gitDir}
}

func (r *Refs) headPath() string  { return filepath.Join(r.gitDir, "HEAD") }
func (r *Refs) refsPath() string  { return filepath.Join(r.gitDir, "refs") }
func (r *Refs) headsPath() string { return filepath.Join(r.refsPath(), "heads") }

// ReadHead returns HEAD's contents (trimmed), or "" if HEAD does not exist —
// a fresh repository with no commits yet (spec §4.4 "HEAD read"). Symbolic
// refs are out of scope; HEAD always stores an OID directly.
func (r *Refs) ReadHead() (Hash, error) {
	data, err := os.ReadFile(r.headPath()) //nolint:gosec // gitDir is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("ReadHead: %w", err)
	}
	line := strings.TrimRight(string(data), "\n")
	if line == "" {
		return "", nil
	}
	return Hash(line), nil
}

// UpdateHead atomically writes oid to HEAD through its lockfile.
func (r *Refs) UpdateHead(oid Hash) error {
	return r.updateRefFile(r.headPath(), oid)
}

// updateRefFile acquires path's lockfile, writes "<oid>\n", and commits
// (spec §4.4 "HEAD update and ref update").
func (r *Refs) updateRefFile(path string, oid Hash) error {
	lock := NewLockfile(path)
	if err := lock.Acquire(); err != nil {
		return err
	}
	if _, err := lock.Write([]byte(string(oid) + "\n")); err != nil {
		_ = lock.Release()
		return fmt.Errorf("updateRefFile: %s: %w", path, err)
	}
	return lock.Commit()
}

// CreateBranch validates name, requires a non-empty startOID, and
// atomic-writes refs/heads/<name> (spec §4.4 "create_branch").
func (r *Refs) CreateBranch(name string, startOID Hash) error {
	if isInvalidName(name) {
		return fmt.Errorf("'%s' is not a valid branch name: %w", name, ErrInvalidName)
	}
	branchPath := filepath.Join(r.headsPath(), name)
	if info, err := os.Stat(branchPath); err == nil && !info.IsDir() {
		return fmt.Errorf("a branch named '%s' already exists: %w", name, ErrAlreadyExists)
	}
	if startOID == "" {
		return fmt.Errorf("CreateBranch: %s: missing start OID: %w", name, ErrBadRevision)
	}
	if err := os.MkdirAll(r.headsPath(), 0o755); err != nil {
		return fmt.Errorf("CreateBranch: %w", err)
	}
	return r.updateRefFile(branchPath, startOID)
}

// ReadRef tries .git/<name>, then .git/refs/<name>, then
// .git/refs/heads/<name> — first file that exists wins (spec §4.4
// "read_ref"). Returns "", false if none exist.
func (r *Refs) ReadRef(name string) (Hash, bool) {
	for _, base := range []string{r.gitDir, r.refsPath(), r.headsPath()} {
		p := filepath.Join(base, name)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(p) //nolint:gosec // p built from a fixed set of repo-relative bases
		if err != nil {
			continue
		}
		line := strings.TrimSpace(string(data))
		if line == "" {
			continue
		}
		return Hash(line), true
	}
	return "", false
}
