package semantic

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/understory/internal/syntax"
)

// defaultIncludes matches Python sources anywhere under the root.
var defaultIncludes = []string{"**/*.py"}

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"build":        true,
	"dist":         true,
	".tox":         true,
	".mypy_cache":  true,
	".ruff_cache":  true,
}

// Program is a read-only snapshot of a Python workspace: the discovered file
// set plus lazily built parse trees and scope bindings. A Program is not safe
// for concurrent queries; the host runs one query at a time against a stable
// snapshot.
type Program struct {
	root       string
	files      []string // sorted workspace-relative slash paths
	fileSet    map[string]bool
	firstParty map[string]bool
	open       map[string]bool

	trees    map[string]*treeEntry
	bindings map[string]*fileBinding
	types    map[typeKey]*Type

	// typesInFlight guards against self-referential assignments during
	// type inference.
	typesInFlight map[typeKey]bool
}

type treeEntry struct {
	tree    *syntax.Tree
	missing bool
}

// Option configures workspace loading.
type Option func(*loadOptions)

type loadOptions struct {
	includes []string
	excludes []string
	open     []string
}

// WithIncludes restricts discovery to files matching at least one glob
// (doublestar syntax, relative to the root).
func WithIncludes(globs ...string) Option {
	return func(o *loadOptions) { o.includes = append(o.includes, globs...) }
}

// WithExcludes drops files matching any glob from the first-party set.
func WithExcludes(globs ...string) Option {
	return func(o *loadOptions) { o.excludes = append(o.excludes, globs...) }
}

// WithOpenFiles marks files as open in the client. Open files are scanned
// during whole-program queries even when not classified as first-party.
func WithOpenFiles(paths ...string) Option {
	return func(o *loadOptions) { o.open = append(o.open, paths...) }
}

// Load discovers the workspace rooted at root and returns its Program
// snapshot. Discovery honors .gitignore when present, skips hidden and
// conventional build directories, and applies include/exclude globs.
func Load(root string, opts ...Option) (*Program, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("semantic: resolve root %s: %w", root, err)
	}

	lo := loadOptions{}
	for _, opt := range opts {
		opt(&lo)
	}
	includes := lo.includes
	if len(includes) == 0 {
		includes = defaultIncludes
	}

	matcher := loadGitignore(abs)

	// Every include-matching file enters the snapshot; gitignore and the
	// exclude globs only demote a file from first-party, so an open editor
	// buffer in an excluded tree can still be scanned.
	var files []string
	firstParty := make(map[string]bool)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable entries are simply not part of the snapshot
		}
		name := d.Name()
		if d.IsDir() {
			if path == abs {
				return nil
			}
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includes, rel) {
			return nil
		}
		files = append(files, rel)
		ignored := matcher != nil && matcher.MatchesPath(rel)
		firstParty[rel] = !ignored && !matchesAny(lo.excludes, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: walk %s: %w", abs, err)
	}
	sort.Strings(files)

	p := &Program{
		root:          abs,
		files:         files,
		fileSet:       make(map[string]bool, len(files)),
		firstParty:    firstParty,
		open:          make(map[string]bool),
		trees:         make(map[string]*treeEntry),
		bindings:      make(map[string]*fileBinding),
		types:         make(map[typeKey]*Type),
		typesInFlight: make(map[typeKey]bool),
	}
	for _, f := range files {
		p.fileSet[f] = true
	}
	for _, f := range lo.open {
		p.open[p.Locator(f)] = true
	}
	return p, nil
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// Root returns the absolute workspace root.
func (p *Program) Root() string { return p.root }

// SourceFiles returns every discovered file, sorted. The slice is shared;
// callers must not mutate it.
func (p *Program) SourceFiles() []string { return p.files }

// Locator normalizes a path (absolute or root-relative, any separator) into
// the workspace-relative slash form used as the external locator.
func (p *Program) Locator(path string) string {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(p.root, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// IsNavigable reports whether a locator points at a file the host can open:
// part of the discovered snapshot.
func (p *Program) IsNavigable(locator string) bool {
	return p.fileSet[locator]
}

// IsFirstParty reports whether a file counts as user code: part of the
// snapshot and not demoted by .gitignore or the exclude globs.
func (p *Program) IsFirstParty(locator string) bool {
	return p.firstParty[locator]
}

// MarkOpen records a file as open in the client.
func (p *Program) MarkOpen(path string) {
	p.open[p.Locator(path)] = true
}

// IsOpen reports whether a file is open in the client.
func (p *Program) IsOpen(locator string) bool {
	return p.open[locator]
}

// ParseTree returns the lazily parsed syntax tree for a file. Returns
// (nil, nil) when the file is not on disk — a missing parse tree is a
// no-result condition, not an error. The only error surfaced is context
// cancellation during parsing.
func (p *Program) ParseTree(ctx context.Context, locator string) (*syntax.Tree, error) {
	if entry, ok := p.trees[locator]; ok {
		if entry.missing {
			return nil, nil
		}
		return entry.tree, nil
	}

	src, err := os.ReadFile(filepath.Join(p.root, filepath.FromSlash(locator)))
	if err != nil {
		p.trees[locator] = &treeEntry{missing: true}
		return nil, nil
	}
	tree, err := syntax.Parse(ctx, locator, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.trees[locator] = &treeEntry{missing: true}
		return nil, nil
	}
	p.trees[locator] = &treeEntry{tree: tree}
	return tree, nil
}

// RelieveMemoryPressure drops the type cache. Advisory: the host calls it
// between per-file scan iterations so large programs do not accumulate
// inference results; dropped entries are recomputed lazily.
func (p *Program) RelieveMemoryPressure() {
	if len(p.types) > 0 {
		p.types = make(map[typeKey]*Type)
	}
}
