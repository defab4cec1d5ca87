package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/gitcore"
)

func runInit(args []string) int {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	repo, err := gitcore.Init(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	fmt.Printf("Initialized empty repository in %s\n", repo.GitDir())
	return 0
}
