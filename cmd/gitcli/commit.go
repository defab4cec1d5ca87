package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-jit/jit/internal/gitcore"
)

func runCommit(repo *gitcore.Repository, args []string) int {
	message, err := commitMessage(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	author, err := authorFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	oid, err := repo.Commit(author, author, message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 1
	}

	fmt.Println(oid)
	return 0
}

// commitMessage extracts the message from -m, falling back to stdin (spec
// §6 "commit [-m <msg>]": "message from -m or stdin").
func commitMessage(args []string) (string, error) {
	for i, arg := range args {
		if arg == "-m" {
			if i+1 >= len(args) {
				return "", fmt.Errorf("option '-m' requires a value")
			}
			return args[i+1], nil
		}
	}

	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", fmt.Errorf("reading commit message from stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("aborting commit due to empty commit message")
	}
	return string(data), nil
}

// authorFromEnv reads GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL (spec §6
// "Environment"); either missing is a Config error.
func authorFromEnv() (gitcore.Signature, error) {
	name := os.Getenv("GIT_AUTHOR_NAME")
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if name == "" || email == "" {
		return gitcore.Signature{}, fmt.Errorf("%w: GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL must both be set", gitcore.ErrConfig)
	}
	return gitcore.Signature{Name: name, Email: email, When: time.Now()}, nil
}
