package gitcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func commitFile(t *testing.T, repo *Repository, dir, path, content, message string) Hash {
	t.Helper()
	writeWorkspaceFile(t, dir, path, content)
	if err := repo.Add([]string{path}); err != nil {
		t.Fatalf("Add(%s) failed: %v", path, err)
	}
	sig := Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1700000000, 0).UTC()}
	oid, err := repo.Commit(sig, sig, message)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return oid
}

func statusOf(t *testing.T, st *WorkingTreeStatus, path string) (FileStatus, bool) {
	t.Helper()
	for _, f := range st.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileStatus{}, false
}

// TestComputeStatus_Quiet covers spec §8's "Status quiet" scenario: a clean
// repository with nothing staged or modified reports no files at all.
func TestComputeStatus_Quiet(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "1.txt", "original content", "initial")

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	if len(st.Files) != 0 {
		t.Errorf("expected no entries for a clean repository, got %+v", st.Files)
	}
}

// TestComputeStatus_DeletedFile covers spec §8's "Deleted file" scenario: a
// tracked file removed from the workspace shows as deleted, unstaged.
func TestComputeStatus_DeletedFile(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "1.txt", "original content", "initial")

	if err := os.Remove(filepath.Join(dir, "1.txt")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	fs, ok := statusOf(t, st, "1.txt")
	if !ok {
		t.Fatal("expected 1.txt to be reported")
	}
	if fs.Index != StatusUnmodified {
		t.Errorf("Index column: got %q, want unmodified", fs.Index)
	}
	if fs.Workspace != StatusDeleted {
		t.Errorf("Workspace column: got %q, want Deleted", fs.Workspace)
	}
}

// TestComputeStatus_ModifiedSameSize covers spec §8's "Modified same size"
// scenario: content changes without a size change must still be detected
// (the stat fast path can't short-circuit on size alone).
func TestComputeStatus_ModifiedSameSize(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "1.txt", "original content", "initial")

	// Same length as "original content".
	writeWorkspaceFile(t, dir, "1.txt", "changed content!")

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	fs, ok := statusOf(t, st, "1.txt")
	if !ok {
		t.Fatal("expected 1.txt to be reported")
	}
	if fs.Index != StatusUnmodified {
		t.Errorf("Index column: got %q, want unmodified", fs.Index)
	}
	if fs.Workspace != StatusModified {
		t.Errorf("Workspace column: got %q, want Modified", fs.Workspace)
	}
}

func TestComputeStatus_StagedAddition(t *testing.T) {
	repo, dir := testRepo(t)
	writeWorkspaceFile(t, dir, "new.txt", "brand new")
	if err := repo.Add([]string{"new.txt"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	fs, ok := statusOf(t, st, "new.txt")
	if !ok {
		t.Fatal("expected new.txt to be reported")
	}
	if fs.Index != StatusAdded {
		t.Errorf("Index column: got %q, want Added", fs.Index)
	}
	if fs.Workspace != StatusUnmodified {
		t.Errorf("Workspace column: got %q, want unmodified", fs.Workspace)
	}
}

func TestComputeStatus_StagedModification(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "1.txt", "original", "initial")

	writeWorkspaceFile(t, dir, "1.txt", "staged change")
	if err := repo.Add([]string{"1.txt"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	fs, ok := statusOf(t, st, "1.txt")
	if !ok {
		t.Fatal("expected 1.txt to be reported")
	}
	if fs.Index != StatusModified {
		t.Errorf("Index column: got %q, want Modified", fs.Index)
	}
	if fs.Workspace != StatusUnmodified {
		t.Errorf("Workspace column: got %q, want unmodified", fs.Workspace)
	}
}

func TestComputeStatus_Untracked(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "1.txt", "original", "initial")
	writeWorkspaceFile(t, dir, "untracked.txt", "new file")

	st, err := ComputeStatus(repo)
	if err != nil {
		t.Fatalf("ComputeStatus failed: %v", err)
	}
	fs, ok := statusOf(t, st, "untracked.txt")
	if !ok {
		t.Fatal("expected untracked.txt to be reported")
	}
	if fs.Index != StatusUntracked || fs.Workspace != StatusUntracked {
		t.Errorf("expected both columns Untracked, got Index=%q Workspace=%q", fs.Index, fs.Workspace)
	}
}

func TestFlattenTree_EmptyOID(t *testing.T) {
	gitDir := t.TempDir()
	entries, err := FlattenTree(gitDir, "")
	if err != nil {
		t.Fatalf("FlattenTree(\"\") failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries for an empty OID, got %d", len(entries))
	}
}

func TestFlattenTree_NestedDirectories(t *testing.T) {
	repo, dir := testRepo(t)
	commitFile(t, repo, dir, "top.txt", "top", "top")
	writeWorkspaceFile(t, dir, "sub/nested.txt", "nested")
	if err := repo.Add([]string{"sub/nested.txt"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	sig := Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1700000000, 0).UTC()}
	oid, err := repo.Commit(sig, sig, "add nested")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	entries, err := FlattenTree(repo.GitDir(), oid)
	if err != nil {
		t.Fatalf("FlattenTree failed: %v", err)
	}
	if _, ok := entries["top.txt"]; !ok {
		t.Error("expected top.txt in flattened tree")
	}
	if _, ok := entries["sub/nested.txt"]; !ok {
		t.Error("expected sub/nested.txt in flattened tree")
	}
}
