package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/go-jit/jit/internal/gitcore"
)

// side is one half of a diff comparison: a path's blob identity and content,
// or its absence.
type side struct {
	present bool
	mode    string
	content []byte
}

func runDiff(repo *gitcore.Repository, args []string) int {
	cached := false
	for _, arg := range args {
		if arg == "--cached" {
			cached = true
		}
	}

	idx, err := gitcore.LoadIndex(repo.GitDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	var oldSides, newSides map[string]side
	if cached {
		oldSides, err = headSides(repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		newSides, err = indexSides(repo, idx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
	} else {
		oldSides, err = indexSides(repo, idx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		newSides = workspaceSides(repo, idx)
	}

	paths := make(map[string]bool)
	for p := range oldSides {
		paths[p] = true
	}
	for p := range newSides {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		o, n := oldSides[p], newSides[p]
		if o.present && n.present && bytes.Equal(o.content, n.content) && o.mode == n.mode {
			continue
		}
		printFileDiff(p, o, n)
	}
	return 0
}

func headSides(repo *gitcore.Repository) (map[string]side, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	entries, err := gitcore.FlattenTree(repo.GitDir(), head)
	if err != nil {
		return nil, err
	}
	out := make(map[string]side, len(entries))
	for p, e := range entries {
		content, err := repo.GetBlob(e.ID)
		if err != nil {
			return nil, err
		}
		out[p] = side{present: true, mode: e.Mode, content: content}
	}
	return out, nil
}

func indexSides(repo *gitcore.Repository, idx *gitcore.Index) (map[string]side, error) {
	out := make(map[string]side)
	for _, p := range idx.Paths() {
		e, _ := idx.Get(p)
		content, err := repo.GetBlob(e.Hash)
		if err != nil {
			return nil, err
		}
		mode := "100644"
		if e.Mode&0o111 != 0 {
			mode = "100755"
		}
		out[p] = side{present: true, mode: mode, content: content}
	}
	return out, nil
}

func workspaceSides(repo *gitcore.Repository, idx *gitcore.Index) map[string]side {
	ws := repo.Workspace()
	out := make(map[string]side)
	for _, p := range idx.Paths() {
		content, err := ws.ReadFile(p)
		if err != nil {
			continue
		}
		mode := "100644"
		if info, err := ws.StatFile(p); err == nil && info.Mode()&0o111 != 0 {
			mode = "100755"
		}
		out[p] = side{present: true, mode: mode, content: content}
	}
	return out
}

func printFileDiff(path string, o, n side) {
	fmt.Printf("diff --git a/%s b/%s\n", path, path)
	switch {
	case !o.present:
		fmt.Println("new file mode " + n.mode)
	case !n.present:
		fmt.Println("deleted file mode " + o.mode)
	}

	if !o.present {
		fmt.Println("--- /dev/null")
	} else {
		fmt.Printf("--- a/%s\n", path)
	}
	if !n.present {
		fmt.Println("+++ /dev/null")
	} else {
		fmt.Printf("+++ b/%s\n", path)
	}

	oldLines := gitcore.SplitLines(o.content)
	newLines := gitcore.SplitLines(n.content)
	edits := gitcore.MyersDiff(oldLines, newLines)
	for _, hunk := range gitcore.GroupHunks(edits) {
		fmt.Println(hunk.Header)
		for _, e := range hunk.Edits {
			switch e.Kind {
			case gitcore.Equals:
				fmt.Printf(" %s\n", e.Line.Content)
			case gitcore.Insert:
				fmt.Printf("+%s\n", e.Line.Content)
			case gitcore.Delete:
				fmt.Printf("-%s\n", e.Line.Content)
			}
		}
	}
}
