package gitcore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Workspace is the on-disk working tree rooted at root, paired with the
// .gitignore rule set loaded from gitDir (spec §4.5).
type Workspace struct {
	root   string
	gitDir string
	ignore *ignoreMatcher
}

// NewWorkspace returns a Workspace rooted at root, loading ignore rules from
// gitDir/info/exclude and root/.gitignore.
func NewWorkspace(root, gitDir string) *Workspace {
	return &Workspace{root: root, gitDir: gitDir, ignore: loadIgnoreMatcher(root, gitDir)}
}

func (w *Workspace) abs(relPath string) string {
	return filepath.Join(w.root, filepath.FromSlash(relPath))
}

// shouldSkip reports whether relPath is outside the tracked set: the .git
// directory itself, or matched by the loaded ignore rules (spec §4.5
// "list_dir": "Skip any name whose first path component is in the ignore
// set {'.', '..', '.git', and any project-provided ignores}").
func (w *Workspace) shouldSkip(relPath string, isDir bool) bool {
	first := relPath
	if idx := strings.IndexByte(relPath, '/'); idx >= 0 {
		first = relPath[:idx]
	}
	if first == "." || first == ".." || first == ".git" {
		return true
	}
	return w.ignore.isIgnored(relPath, isDir)
}

// ListDir enumerates the immediate children of dir (root-relative; "" means
// the workspace root), returning a map from child relative path to its stat
// (spec §4.5 "list_dir").
func (w *Workspace) ListDir(dir string) (map[string]fs.FileInfo, error) {
	w.ignore.ensureDirLoaded(w.root, dir)
	entries, err := os.ReadDir(w.abs(dir))
	if err != nil {
		return nil, fmt.Errorf("ListDir: %w", err)
	}
	out := make(map[string]fs.FileInfo, len(entries))
	for _, e := range entries {
		rel := e.Name()
		if dir != "" {
			rel = dir + "/" + rel
		}
		if w.shouldSkip(rel, e.IsDir()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("ListDir: %w", err)
		}
		out[rel] = info
	}
	return out, nil
}

// ListFiles recursively enumerates tracked files under p (root-relative; ""
// means the whole workspace). If p names a file, the result is just [p]
// (spec §4.5 "list_files").
func (w *Workspace) ListFiles(p string) ([]string, error) {
	info, err := os.Stat(w.abs(p))
	if err != nil {
		return nil, fmt.Errorf("ListFiles: %w", err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	var out []string
	var walk func(dir string) error
	walk = func(dir string) error {
		children, err := w.ListDir(dir)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(children))
		for rel := range children {
			names = append(names, rel)
		}
		sort.Strings(names)
		for _, rel := range names {
			if children[rel].IsDir() {
				if err := walk(rel); err != nil {
					return err
				}
				continue
			}
			out = append(out, rel)
		}
		return nil
	}
	if err := walk(p); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile reads the content of a tracked file at relPath.
func (w *Workspace) ReadFile(relPath string) ([]byte, error) {
	data, err := os.ReadFile(w.abs(relPath)) //nolint:gosec // relPath is workspace-relative
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	return data, nil
}

// StatFile stats a tracked file at relPath.
func (w *Workspace) StatFile(relPath string) (fs.FileInfo, error) {
	info, err := os.Stat(w.abs(relPath))
	if err != nil {
		return nil, fmt.Errorf("StatFile: %w", err)
	}
	return info, nil
}

// ApplyMigration mutates the workspace's files and directories to match plan,
// in the fixed order spec §4.5 requires:
//  1. remove files
//  2. rmdir plan.Rmdirs, deepest first, ignoring "directory not empty"
//  3. mkdir plan.Mkdirs, shallowest first
//  4. remove each Create target (a missing file counts as success), then
//     write it with create-new semantics and chmod
//  5. write Update entries, replacing existing content, then chmod
func (w *Workspace) ApplyMigration(plan *Migration, gitDir string) error {
	for _, step := range plan.Removes {
		path := w.abs(step.Path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ApplyMigration: remove %s: %w", step.Path, err)
		}
	}

	for _, dir := range plan.Rmdirs {
		if err := os.Remove(w.abs(dir)); err != nil {
			if os.IsNotExist(err) || isDirNotEmpty(err) {
				continue
			}
			return fmt.Errorf("ApplyMigration: rmdir %s: %w", dir, err)
		}
	}

	for _, dir := range plan.Mkdirs {
		if err := os.Mkdir(w.abs(dir), 0o755); err != nil && !os.IsExist(err) {
			return fmt.Errorf("ApplyMigration: mkdir %s: %w", dir, err)
		}
	}

	for _, step := range plan.Creates {
		// Clear the target first; spec §9 treats NotFound here as success.
		if err := os.Remove(w.abs(step.Path)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ApplyMigration: remove %s: %w", step.Path, err)
		}
		if err := w.writeBlobFile(gitDir, step, os.O_WRONLY|os.O_CREATE|os.O_EXCL); err != nil {
			return err
		}
	}

	for _, step := range plan.Updates {
		if err := w.writeBlobFile(gitDir, step, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
			return err
		}
	}

	return nil
}

// writeBlobFile fetches step.After's blob from the object store and writes
// it to the workspace under the given open flags, then chmods to the
// entry's recorded mode.
func (w *Workspace) writeBlobFile(gitDir string, step MigrationStep, flags int) error {
	content, err := ReadBlob(gitDir, step.After.ID)
	if err != nil {
		return fmt.Errorf("ApplyMigration: %s: read blob %s: %w", step.Path, step.After.ID, err)
	}
	path := w.abs(step.Path)
	mode := os.FileMode(0o644)
	if step.After.Mode == modeExecutable {
		mode = 0o755
	}

	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // mode set explicitly below via Chmod
	if err != nil {
		return fmt.Errorf("ApplyMigration: %s: %w", step.Path, err)
	}
	_, writeErr := f.Write(content)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("ApplyMigration: %s: write: %w", step.Path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("ApplyMigration: %s: close: %w", step.Path, closeErr)
	}
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("ApplyMigration: %s: chmod: %w", step.Path, err)
	}
	return nil
}

// isDirNotEmpty reports whether err indicates rmdir found a non-empty
// directory — another tracked entry still lives there, which §4.5 says to
// ignore rather than fail the migration.
func isDirNotEmpty(err error) bool {
	return strings.Contains(err.Error(), "directory not empty") ||
		strings.Contains(err.Error(), "not empty")
}
