package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/gitcore"
)

func runAdd(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gitcli add <path>...")
		return 1
	}

	ws := repo.Workspace()
	var paths []string
	for _, arg := range args {
		rel := arg
		if rel == "." {
			rel = ""
		}
		files, err := ws.ListFiles(rel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: pathspec '%s' did not match any files: %v\n", arg, err)
			return 128
		}
		paths = append(paths, files...)
	}

	if err := repo.Add(paths); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}
	return 0
}
