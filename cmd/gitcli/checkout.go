package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/gitcore"
)

func runCheckout(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gitcli checkout <rev>")
		return 1
	}

	if err := repo.Checkout(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	return 0
}
