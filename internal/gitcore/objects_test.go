package gitcore

import (
	"bytes"
	"testing"
	"time"
)

func testSignature() Signature {
	return Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1700000000, 0).UTC()}
}

func TestStoreBlob_ReadBlob_RoundTrip(t *testing.T) {
	gitDir := t.TempDir()

	content := []byte("hello, world\n")
	oid, err := StoreBlob(gitDir, content)
	if err != nil {
		t.Fatalf("StoreBlob failed: %v", err)
	}
	if len(oid) != 40 {
		t.Fatalf("oid: expected 40 hex chars, got %d (%q)", len(oid), oid)
	}

	got, err := ReadBlob(gitDir, oid)
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("ReadBlob: got %q, want %q", got, content)
	}
}

func TestStoreBlob_EmptyContent(t *testing.T) {
	gitDir := t.TempDir()

	oid, err := StoreBlob(gitDir, nil)
	if err != nil {
		t.Fatalf("StoreBlob failed on empty content: %v", err)
	}
	got, err := ReadBlob(gitDir, oid)
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty blob content, got %q", got)
	}
}

func TestStoreBlob_Idempotent(t *testing.T) {
	gitDir := t.TempDir()

	content := []byte("same content")
	oid1, err := StoreBlob(gitDir, content)
	if err != nil {
		t.Fatalf("StoreBlob failed: %v", err)
	}
	oid2, err := StoreBlob(gitDir, content)
	if err != nil {
		t.Fatalf("StoreBlob (second store) failed: %v", err)
	}
	if oid1 != oid2 {
		t.Errorf("expected identical content to hash to the same OID: %s != %s", oid1, oid2)
	}
}

func TestReadBlob_KindMismatch(t *testing.T) {
	gitDir := t.TempDir()

	treeOID, err := storeObject(gitDir, TreeObject, []byte("not a blob"))
	if err != nil {
		t.Fatalf("storeObject failed: %v", err)
	}

	if _, err := ReadBlob(gitDir, treeOID); err == nil {
		t.Error("expected ReadBlob to reject a tree object, got nil error")
	}
}

func TestCommitBody_HeaderOrder(t *testing.T) {
	tree := Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	parent := Hash("cccccccccccccccccccccccccccccccccccccccc")
	sig := testSignature()

	body := commitBody(tree, parent, sig, sig, "a message")
	want := "tree aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
		"parent cccccccccccccccccccccccccccccccccccccccc\n" +
		"author Test User <test@example.com> 1700000000 +0000\n" +
		"committer Test User <test@example.com> 1700000000 +0000\n" +
		"\na message"

	if string(body) != want {
		t.Errorf("commitBody:\n got  %q\n want %q", body, want)
	}
}

func TestCommitBody_NoParent(t *testing.T) {
	tree := Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	sig := testSignature()

	body := commitBody(tree, "", sig, sig, "root commit")
	if bytes.Contains(body, []byte("parent ")) {
		t.Errorf("expected no parent header in root commit body, got %q", body)
	}
}

func TestStoreCommit_ReadCommit_RoundTrip(t *testing.T) {
	gitDir := t.TempDir()

	blobOID, err := StoreBlob(gitDir, []byte("file content"))
	if err != nil {
		t.Fatalf("StoreBlob failed: %v", err)
	}
	treeOID, err := BuildTreeFromIndex(gitDir, []string{"file.txt"}, []string{"100644"}, []Hash{blobOID})
	if err != nil {
		t.Fatalf("BuildTreeFromIndex failed: %v", err)
	}

	sig := testSignature()
	commitOID, err := StoreCommit(gitDir, treeOID, "", sig, sig, "Initial commit")
	if err != nil {
		t.Fatalf("StoreCommit failed: %v", err)
	}

	commit, err := ReadCommit(gitDir, commitOID)
	if err != nil {
		t.Fatalf("ReadCommit failed: %v", err)
	}

	if commit.ID != commitOID {
		t.Errorf("ID: got %s, want %s", commit.ID, commitOID)
	}
	if commit.Tree != treeOID {
		t.Errorf("Tree: got %s, want %s", commit.Tree, treeOID)
	}
	if commit.Parent != "" {
		t.Errorf("Parent: expected empty for root commit, got %s", commit.Parent)
	}
	if commit.Author.Name != "Test User" {
		t.Errorf("Author.Name: got %q", commit.Author.Name)
	}
	if commit.Message != "Initial commit" {
		t.Errorf("Message: got %q", commit.Message)
	}
}

func TestParseCommitBody_NoParent(t *testing.T) {
	body := []byte("tree aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nauthor Test User <test@example.com> 1700000000 +0000\ncommitter Test User <test@example.com> 1700000000 +0000\n\nInitial commit")
	id := Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	commit, err := parseCommitBody(id, body)
	if err != nil {
		t.Fatalf("parseCommitBody failed: %v", err)
	}

	if commit.ID != id {
		t.Errorf("ID: got %s, want %s", commit.ID, id)
	}
	if commit.Tree != Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Errorf("Tree: got %s", commit.Tree)
	}
	if commit.Parent != "" {
		t.Errorf("Parent: expected empty, got %s", commit.Parent)
	}
	if commit.Author.Email != "test@example.com" {
		t.Errorf("Author.Email: got %q", commit.Author.Email)
	}
	if commit.Message != "Initial commit" {
		t.Errorf("Message: got %q", commit.Message)
	}
}

func TestParseCommitBody_OneParent(t *testing.T) {
	body := []byte("tree aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nparent cccccccccccccccccccccccccccccccccccccccc\nauthor Test User <test@example.com> 1700000000 +0000\ncommitter Test User <test@example.com> 1700000000 +0000\n\nSecond commit")
	id := Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	commit, err := parseCommitBody(id, body)
	if err != nil {
		t.Fatalf("parseCommitBody failed: %v", err)
	}
	if commit.Parent != Hash("cccccccccccccccccccccccccccccccccccccccc") {
		t.Errorf("Parent: got %s", commit.Parent)
	}
	if commit.Message != "Second commit" {
		t.Errorf("Message: got %q", commit.Message)
	}
}

func TestParseCommitBody_MissingTree(t *testing.T) {
	body := []byte("author Test User <test@example.com> 1700000000 +0000\ncommitter Test User <test@example.com> 1700000000 +0000\n\nno tree header")
	id := Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	if _, err := parseCommitBody(id, body); err == nil {
		t.Error("expected error for missing tree header, got nil")
	}
}

func TestParseCommitBody_MultilineMessage(t *testing.T) {
	body := []byte("tree aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nauthor Test User <test@example.com> 1700000000 +0000\ncommitter Test User <test@example.com> 1700000000 +0000\n\nSummary line\n\nBody paragraph explaining why.\n")
	id := Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	commit, err := parseCommitBody(id, body)
	if err != nil {
		t.Fatalf("parseCommitBody failed: %v", err)
	}
	want := "Summary line\n\nBody paragraph explaining why."
	if commit.Message != want {
		t.Errorf("Message:\n got  %q\n want %q", commit.Message, want)
	}
}
