package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/gitcore"
)

func runBranch(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gitcli branch <name> [<start>]")
		return 1
	}

	name := args[0]
	start := ""
	if len(args) > 1 {
		start = args[1]
	}

	if err := repo.CreateBranch(name, start); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}
	return 0
}
