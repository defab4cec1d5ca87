// Command gitcli is a thin shell around internal/gitcore exposing the CLI
// surface spec §6 defines: init, add, commit, status, diff, branch, and
// checkout. Parsing, rendering, and environment sourcing live here — the
// core package never formats output or reads the environment itself.
package main

import (
	"fmt"
	"os"

	"github.com/go-jit/jit/internal/cli"
	"github.com/go-jit/jit/internal/gitcore"
)

var version = "dev"

func main() {
	args := os.Args[1:]

	app := cli.NewApp("gitcli", version)
	app.Stderr = os.Stderr

	var repo *gitcore.Repository

	app.Register(&cli.Command{
		Name:     "init",
		Summary:  "Create an empty repository",
		Usage:    "gitcli init <path>",
		Examples: []string{"gitcli init .", "gitcli init myproject"},
		Run:      func(args []string) int { return runInit(args) },
	})

	app.Register(&cli.Command{
		Name:      "add",
		Summary:   "Stage files",
		Usage:     "gitcli add <path>...",
		Examples:  []string{"gitcli add .", "gitcli add a.txt b.txt"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runAdd(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Record staged changes",
		Usage:     "gitcli commit [-m <msg>]",
		Examples:  []string{"gitcli commit -m 'initial commit'"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "status",
		Summary:   "Show working tree status",
		Usage:     "gitcli status [--porcelain]",
		Examples:  []string{"gitcli status", "gitcli status --porcelain"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runStatus(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "diff",
		Summary:   "Show changes between the index and the workspace, or HEAD and the index",
		Usage:     "gitcli diff [--cached]",
		Examples:  []string{"gitcli diff", "gitcli diff --cached"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runDiff(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "Create a branch",
		Usage:     "gitcli branch <name> [<start>]",
		Examples:  []string{"gitcli branch feature", "gitcli branch feature HEAD~1"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(repo, args) },
	})

	app.Register(&cli.Command{
		Name:      "checkout",
		Summary:   "Migrate the working tree and index to a revision",
		Usage:     "gitcli checkout <rev>",
		Examples:  []string{"gitcli checkout main", "gitcli checkout HEAD^"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(repo, args) },
	})

	if len(args) > 0 {
		if cmd := app.Lookup(args[0]); cmd != nil && cmd.NeedsRepo {
			repoPath := os.Getenv("GIT_DIR")
			if repoPath == "" {
				repoPath = "."
			}
			var err error
			repo, err = gitcore.Open(repoPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
				os.Exit(128)
			}
		}
	}

	os.Exit(app.Run(args))
}
