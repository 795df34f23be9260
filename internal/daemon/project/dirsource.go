package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/driftbox/driftbox/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
)

// junk that never belongs in a mirror, regardless of user exclude patterns
var defaultJunkLines = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	"venv/",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swo",
}

// DirSource exposes every subdirectory of a projects root as a project.
type DirSource struct {
	root   string
	ignore *gitignore.GitIgnore
}

func NewDirSource(root string) (*DirSource, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, err
	}
	if !utils.DirExists(resolved) {
		return nil, fmt.Errorf("projects root %s does not exist", resolved)
	}
	return &DirSource{
		root:   resolved,
		ignore: gitignore.CompileIgnoreLines(defaultJunkLines...),
	}, nil
}

// Root returns the resolved projects root path.
func (s *DirSource) Root() string {
	return s.root
}

func (s *DirSource) Projects() ([]string, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list projects root: %w", err)
	}

	var names []string
	for _, de := range dirents {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		names = append(names, de.Name())
	}
	return names, nil
}

func (s *DirSource) Tree(name string) (Tree, error) {
	path := filepath.Join(s.root, name)
	if !utils.DirExists(path) {
		return nil, fmt.Errorf("project %s not found under %s", name, s.root)
	}
	return &dirTree{name: name, path: path, ignore: s.ignore}, nil
}

// ProjectOf maps an absolute path inside the projects root to the project it
// belongs to.
func (s *DirSource) ProjectOf(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) == 0 || parts[0] == "" || strings.HasPrefix(parts[0], ".") {
		return "", false
	}
	return parts[0], true
}

// dirTree reads a project directly from disk, filtering VCS/editor junk.
type dirTree struct {
	name   string
	path   string
	ignore *gitignore.GitIgnore
}

func (t *dirTree) Name() string {
	return t.name
}

func (t *dirTree) Files() (map[string]File, error) {
	files := make(map[string]File)

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		relPath, err := filepath.Rel(t.path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if t.ignore.MatchesPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		files[relPath] = File{Content: content, ModTime: info.ModTime()}
		return nil
	}

	if err := filepath.WalkDir(t.path, walkFn); err != nil {
		return nil, err
	}
	return files, nil
}
