package gitcore

import (
	"sort"
	"strings"
)

// MigrationAction distinguishes the three ways a leaf path can change
// between two tree OIDs (spec §4.9).
type MigrationAction int

const (
	Create MigrationAction = iota
	Update
	Remove
)

// MigrationStep is one leaf-path change the workspace applier executes.
type MigrationStep struct {
	Path   string
	Action MigrationAction
	Before *TreeEntry
	After  *TreeEntry
}

// Migration is an ordered plan derived from a TreeDifference: every step
// needed to move a working tree from one commit's tree to another, plus the
// directory housekeeping (spec §4.9/§4.5).
type Migration struct {
	Removes []MigrationStep
	Updates []MigrationStep
	Creates []MigrationStep
	Mkdirs  []string
	Rmdirs  []string
}

// ancestors returns every strict ancestor directory of p, root-relative and
// not including p itself or the repository root ("").
func ancestors(p string) []string {
	var out []string
	dir := p
	for {
		idx := strings.LastIndexByte(dir, '/')
		if idx < 0 {
			break
		}
		dir = dir[:idx]
		out = append(out, dir)
	}
	return out
}

// PlanMigration turns a TreeDifference into an ordered Migration (spec §4.9
// "plan(diff)").
func PlanMigration(diff TreeDifference) *Migration {
	m := &Migration{}
	mkdirSet := make(map[string]bool)
	rmdirSet := make(map[string]bool)

	for p, change := range diff {
		step := MigrationStep{Path: p, Before: change.Before, After: change.After}
		switch {
		case change.Before == nil:
			step.Action = Create
			m.Creates = append(m.Creates, step)
			for _, a := range ancestors(p) {
				mkdirSet[a] = true
			}
		case change.After == nil:
			step.Action = Remove
			m.Removes = append(m.Removes, step)
			for _, a := range ancestors(p) {
				rmdirSet[a] = true
			}
		default:
			step.Action = Update
			m.Updates = append(m.Updates, step)
			for _, a := range ancestors(p) {
				mkdirSet[a] = true
			}
		}
	}

	m.Mkdirs = sortByDepth(mkdirSet, false)
	m.Rmdirs = sortByDepth(rmdirSet, true)

	sortSteps(m.Removes)
	sortSteps(m.Updates)
	sortSteps(m.Creates)

	return m
}

func sortSteps(steps []MigrationStep) {
	sort.Slice(steps, func(i, j int) bool { return steps[i].Path < steps[j].Path })
}

func depthOf(p string) int { return strings.Count(p, "/") }

// sortByDepth deduplicates and sorts directory paths ascending by depth
// (shallowest first) or, if descending is true, deepest first — the order
// spec §4.5 requires for mkdirs and rmdirs respectively.
func sortByDepth(set map[string]bool, descending bool) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := depthOf(out[i]), depthOf(out[j])
		if di != dj {
			if descending {
				return di > dj
			}
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}
