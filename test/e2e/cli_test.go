//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_CreatesRepository(t *testing.T) {
	dir := t.TempDir()
	out := runCLI(t, dir, "init", ".")
	if !strings.Contains(out, "Initialized empty repository") {
		t.Errorf("expected init confirmation, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git", "objects")); err != nil {
		t.Errorf("expected .git/objects to exist: %v", err)
	}
}

func TestAddCommitStatus_CleanAfterCommit(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "README.md", "# Hello\n", "Initial commit")

	out := runCLI(t, dir, "status", "--porcelain")
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected empty porcelain output for a clean repo, got:\n%s", out)
	}
}

func TestStatus_ModifiedFile(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "main.go", "package main\n", "Add main.go")

	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	out := runCLI(t, dir, "status", "--porcelain")
	if !strings.Contains(out, " M main.go") {
		t.Errorf("expected ' M main.go' in porcelain output, got:\n%s", out)
	}
}

func TestStatus_DeletedFile(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "1.txt", "content\n", "Add 1.txt")

	if err := os.Remove(filepath.Join(dir, "1.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	out := runCLI(t, dir, "status", "--porcelain")
	if !strings.Contains(out, " D 1.txt") {
		t.Errorf("expected ' D 1.txt' in porcelain output, got:\n%s", out)
	}
}

func TestStatus_StagedAddition(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "new.txt", "brand new\n")
	runCLI(t, dir, "add", "new.txt")

	out := runCLI(t, dir, "status", "--porcelain")
	if !strings.Contains(out, "A  new.txt") {
		t.Errorf("expected 'A  new.txt' in porcelain output, got:\n%s", out)
	}
}

func TestStatus_Untracked(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "1.txt", "content\n", "Add 1.txt")
	writeFile(t, dir, "new.txt", "untracked\n")

	out := runCLI(t, dir, "status", "--porcelain")
	if !strings.Contains(out, "?? new.txt") {
		t.Errorf("expected '?? new.txt' in porcelain output, got:\n%s", out)
	}
}

func TestDiff_WorkspaceVsIndex(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "main.go", "package main\n", "Add main.go")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	out := runCLI(t, dir, "diff")
	if !strings.Contains(out, "diff --git") {
		t.Error("diff output missing 'diff --git' header")
	}
	if !strings.Contains(out, "@@") {
		t.Error("diff output missing a hunk header")
	}
	if !strings.Contains(out, "+func main() {}") {
		t.Error("diff output missing the inserted line")
	}
}

func TestDiff_Cached(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "main.go", "package main\n", "Add main.go")

	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	runCLI(t, dir, "add", "main.go")

	out := runCLI(t, dir, "diff", "--cached")
	if !strings.Contains(out, "diff --git") {
		t.Error("cached diff output missing 'diff --git' header")
	}

	// With nothing further staged, an uncached diff should now be empty.
	unstaged := runCLI(t, dir, "diff")
	if strings.TrimSpace(unstaged) != "" {
		t.Errorf("expected empty unstaged diff once the change is staged, got:\n%s", unstaged)
	}
}

func TestBranch_CreateAndCheckout(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "1.txt", "one\n", "first")

	runCLI(t, dir, "branch", "feature")

	refPath := filepath.Join(dir, ".git", "refs", "heads", "feature")
	if _, err := os.Stat(refPath); err != nil {
		t.Errorf("expected refs/heads/feature to exist: %v", err)
	}

	addAndCommit(t, dir, "1.txt", "two\n", "second")

	if err := runCLICheckout(t, dir, "feature"); err != nil {
		t.Fatalf("checkout feature failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "one\n" {
		t.Errorf("expected workspace content from the branch's commit, got %q", content)
	}
}

func runCLICheckout(t *testing.T, dir, rev string) error {
	t.Helper()
	_, stderr, code := runCLIAllowFail(t, dir, "checkout", rev)
	if code != 0 {
		t.Fatalf("checkout %s failed: %s", rev, stderr)
	}
	return nil
}

func TestCheckout_ParentRevision(t *testing.T) {
	dir := initRepo(t)
	addAndCommit(t, dir, "1.txt", "one\n", "first")
	addAndCommit(t, dir, "1.txt", "two\n", "second")

	out := runCLI(t, dir, "status", "--porcelain")
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected clean status before checkout, got:\n%s", out)
	}

	if err := runCLICheckout(t, dir, "HEAD^"); err != nil {
		t.Fatalf("checkout HEAD^ failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "one\n" {
		t.Errorf("expected parent commit's content after checkout HEAD^, got %q", content)
	}
}

