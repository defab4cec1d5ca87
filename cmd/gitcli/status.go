package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/gitcore"
)

func runStatus(repo *gitcore.Repository, args []string) int {
	porcelain := false
	for _, arg := range args {
		if arg == "--porcelain" || arg == "-s" {
			porcelain = true
		}
	}

	status, err := gitcore.ComputeStatus(repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	if porcelain {
		for _, f := range status.Files {
			fmt.Printf("%c%c %s\n", f.Index, f.Workspace, f.Path)
		}
		return 0
	}

	return printLongStatus(status)
}

func printLongStatus(status *gitcore.WorkingTreeStatus) int {
	var staged, unstaged, untracked []gitcore.FileStatus
	for _, f := range status.Files {
		if f.Index == gitcore.StatusUntracked {
			untracked = append(untracked, f)
			continue
		}
		if f.Index != gitcore.StatusUnmodified {
			staged = append(staged, f)
		}
		if f.Workspace != gitcore.StatusUnmodified {
			unstaged = append(unstaged, f)
		}
	}

	if len(staged) > 0 {
		fmt.Println("Changes to be committed:")
		for _, f := range staged {
			fmt.Printf("\t%s   %s\n", describeStatus(f.Index), f.Path)
		}
		fmt.Println()
	}

	if len(unstaged) > 0 {
		fmt.Println("Changes not staged for commit:")
		for _, f := range unstaged {
			fmt.Printf("\t%s   %s\n", describeStatus(f.Workspace), f.Path)
		}
		fmt.Println()
	}

	if len(untracked) > 0 {
		fmt.Println("Untracked files:")
		for _, f := range untracked {
			fmt.Printf("\t%s\n", f.Path)
		}
		fmt.Println()
	}

	if len(staged) == 0 && len(unstaged) == 0 && len(untracked) == 0 {
		fmt.Println("nothing to commit, working tree clean")
	}
	return 0
}

func describeStatus(code gitcore.StatusCode) string {
	switch code {
	case gitcore.StatusAdded:
		return "new file:"
	case gitcore.StatusModified:
		return "modified:"
	case gitcore.StatusDeleted:
		return "deleted: "
	default:
		return "         "
	}
}
