// Package gitcore implements a Git-compatible content-addressed object
// store, staging index, ref namespace, and working-tree migration engine.
package gitcore

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// StoreBlob serializes and stores raw file content, returning its OID.
// An empty blob is valid and storable (spec §8 boundary).
func StoreBlob(gitDir string, content []byte) (Hash, error) {
	return storeObject(gitDir, BlobObject, content)
}

// ReadBlob reads and returns a blob's raw content.
func ReadBlob(gitDir string, oid Hash) ([]byte, error) {
	kind, body, err := readObjectRaw(gitDir, oid)
	if err != nil {
		return nil, err
	}
	if kind != BlobObject {
		return nil, fmt.Errorf("ReadBlob: %s: expected blob, got %s: %w", oid, kind, ErrKindMismatch)
	}
	return body, nil
}

// commitBody serializes a Commit's headers + blank line + message, in the
// fixed header order spec §9 resolves the source's ambiguity to: tree,
// optional parent, author, committer, blank line, body.
func commitBody(tree, parent Hash, author, committer Signature, message string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", tree)
	if parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", parent)
	}
	fmt.Fprintf(&buf, "author %s\n", author)
	fmt.Fprintf(&buf, "committer %s\n", committer)
	buf.WriteByte('\n')
	buf.WriteString(message)
	return buf.Bytes()
}

// StoreCommit serializes and stores a commit, returning its OID.
func StoreCommit(gitDir string, tree, parent Hash, author, committer Signature, message string) (Hash, error) {
	return storeObject(gitDir, CommitObject, commitBody(tree, parent, author, committer, message))
}

// ReadCommit reads and parses a commit object.
func ReadCommit(gitDir string, oid Hash) (*Commit, error) {
	kind, body, err := readObjectRaw(gitDir, oid)
	if err != nil {
		return nil, err
	}
	if kind != CommitObject {
		return nil, fmt.Errorf("ReadCommit: %s: expected commit, got %s: %w", oid, kind, ErrKindMismatch)
	}
	return parseCommitBody(oid, body)
}

func parseCommitBody(id Hash, body []byte) (*Commit, error) {
	c := &Commit{ID: id}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	inMessage := false
	var messageLines []string

	for scanner.Scan() {
		line := scanner.Text()
		if inMessage {
			messageLines = append(messageLines, line)
			continue
		}
		if line == "" {
			inMessage = true
			continue
		}
		switch {
		case strings.HasPrefix(line, "tree "):
			tree, err := NewHash(strings.TrimPrefix(line, "tree "))
			if err != nil {
				return nil, fmt.Errorf("parseCommitBody: %w: %v", ErrCorrupt, err)
			}
			c.Tree = tree
		case strings.HasPrefix(line, "parent "):
			parent, err := NewHash(strings.TrimPrefix(line, "parent "))
			if err != nil {
				return nil, fmt.Errorf("parseCommitBody: %w: %v", ErrCorrupt, err)
			}
			c.Parent = parent
		case strings.HasPrefix(line, "author "):
			a, err := NewSignature(strings.TrimPrefix(line, "author "))
			if err != nil {
				return nil, fmt.Errorf("parseCommitBody: %w: %v", ErrCorrupt, err)
			}
			c.Author = a
		case strings.HasPrefix(line, "committer "):
			cm, err := NewSignature(strings.TrimPrefix(line, "committer "))
			if err != nil {
				return nil, fmt.Errorf("parseCommitBody: %w: %v", ErrCorrupt, err)
			}
			c.Committer = cm
		}
	}

	c.Message = strings.TrimSpace(strings.Join(messageLines, "\n"))
	if c.Tree == "" {
		return nil, fmt.Errorf("parseCommitBody: %s: missing tree header: %w", id, ErrCorrupt)
	}
	return c, nil
}
