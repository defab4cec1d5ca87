package gitcore

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var (
	parentRe   = regexp.MustCompile(`^(.+)\^$`)
	ancestorRe = regexp.MustCompile(`^(.+)~(\d+)$`)
)

// revKind distinguishes the three shapes of the revision grammar (spec §4.6).
type revKind int

const (
	revRef revKind = iota
	revParent
	revAncestor
)

// revision is a parsed revision expression: Ref(name) | Parent(rev) |
// Ancestor(rev, n).
type revision struct {
	kind revKind
	name string    // set for revRef
	sub  *revision // set for revParent/revAncestor
	n    int       // set for revAncestor
}

// parseRevision parses a revision expression string (spec §4.6 "Grammar").
// `@` is sugar for HEAD.
func parseRevision(expr string) (*revision, error) {
	if m := parentRe.FindStringSubmatch(expr); m != nil {
		sub, err := parseRevision(m[1])
		if err != nil {
			return nil, err
		}
		return &revision{kind: revParent, sub: sub}, nil
	}
	if m := ancestorRe.FindStringSubmatch(expr); m != nil {
		sub, err := parseRevision(m[1])
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("parseRevision: %s: %w", expr, ErrBadRevision)
		}
		return &revision{kind: revAncestor, sub: sub, n: n}, nil
	}
	if !isInvalidName(expr) {
		name := expr
		if name == "@" {
			name = "HEAD"
		}
		return &revision{kind: revRef, name: name}, nil
	}
	return nil, fmt.Errorf("parseRevision: %s: %w", expr, ErrBadRevision)
}

// RevisionResolver resolves revision expressions against a repository's refs
// and object store, accumulating hinted errors the way spec §4.6/§7 require
// so a caller can flush every diagnostic in the order they were recorded.
type RevisionResolver struct {
	gitDir string
	refs   *Refs
	expr   string
	Errors []*HintedError
}

// NewRevisionResolver returns a resolver for expr against the repository
// rooted at gitDir.
func NewRevisionResolver(gitDir string, refs *Refs, expr string) *RevisionResolver {
	return &RevisionResolver{gitDir: gitDir, refs: refs, expr: expr}
}

// Resolve parses and evaluates the expression, then verifies the resolved
// object has the expected kind (spec §4.6 "Resolve").
func (r *RevisionResolver) Resolve(expected ObjectType) (Hash, error) {
	rev, err := parseRevision(r.expr)
	if err != nil {
		return "", err
	}
	oid, ok := r.eval(rev)
	if !ok {
		if len(r.Errors) > 0 {
			return "", r.Errors[0]
		}
		return "", fmt.Errorf("not a valid object name: '%s': %w", r.expr, ErrBadRevision)
	}

	kind, _, err := readObjectRaw(r.gitDir, oid)
	if err != nil {
		return "", err
	}
	if kind != expected {
		he := &HintedError{
			Message: fmt.Sprintf("object %s is a %s, not a %s", oid, kind, expected),
			Wrapped: ErrKindMismatch,
		}
		r.Errors = append(r.Errors, he)
		return "", he
	}
	return oid, nil
}

func (r *RevisionResolver) eval(rev *revision) (Hash, bool) {
	switch rev.kind {
	case revRef:
		return r.readRef(rev.name)
	case revParent:
		oid, ok := r.eval(rev.sub)
		if !ok {
			return "", false
		}
		return r.commitParent(oid)
	case revAncestor:
		oid, ok := r.eval(rev.sub)
		if !ok {
			return "", false
		}
		for i := 0; i < rev.n; i++ {
			oid, ok = r.commitParent(oid)
			if !ok {
				return "", false
			}
		}
		return oid, true
	default:
		return "", false
	}
}

func (r *RevisionResolver) commitParent(oid Hash) (Hash, bool) {
	if oid == "" {
		return "", false
	}
	kind, body, err := readObjectRaw(r.gitDir, oid)
	if err != nil || kind != CommitObject {
		return "", false
	}
	c, err := parseCommitBody(oid, body)
	if err != nil || c.Parent == "" {
		return "", false
	}
	return c.Parent, true
}

// readRef resolves a ref name, falling back to short-OID prefix match
// (spec §4.6 step 2).
func (r *RevisionResolver) readRef(name string) (Hash, bool) {
	if oid, ok := r.refs.ReadRef(name); ok {
		return oid, true
	}
	if len(name) < 2 {
		return "", false
	}
	candidates, err := prefixMatch(r.gitDir, name)
	if err != nil {
		return "", false
	}
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	default:
		r.logAmbiguous(name, candidates)
		return "", false
	}
}

// logAmbiguous records an Ambiguous hinted error listing every candidate as
// "<short-oid> <kind> [<date> <title>]" (spec §4.6 step 2).
func (r *RevisionResolver) logAmbiguous(name string, candidates []Hash) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	hints := []string{"The candidates are:"}
	for _, oid := range candidates {
		kind, body, err := readObjectRaw(r.gitDir, oid)
		if err != nil {
			continue
		}
		if kind == CommitObject {
			c, err := parseCommitBody(oid, body)
			if err == nil {
				title := c.Message
				if idx := indexOfNewline(title); idx >= 0 {
					title = title[:idx]
				}
				hints = append(hints, fmt.Sprintf("%s %s %s %s", oid.Short(), kind, c.Author.When.Format("Mon Jan 2"), title))
				continue
			}
		}
		hints = append(hints, fmt.Sprintf("%s %s", oid.Short(), kind))
	}

	r.Errors = append(r.Errors, &HintedError{
		Message: fmt.Sprintf("short SHA1 %s is ambiguous", name),
		Hints:   hints,
		Wrapped: ErrAmbiguous,
	})
}

func indexOfNewline(s string) int {
	for i, b := range []byte(s) {
		if b == '\n' {
			return i
		}
	}
	return -1
}
