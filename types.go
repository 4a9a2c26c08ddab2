package understory

import (
	"github.com/jward/understory/internal/semantic"
	"github.com/jward/understory/internal/syntax"
)

// Public type aliases for internal types used in the Provider API. These are
// Go type aliases (=) — identical to the internal types at compile time.
// External consumers use these names; no conversion is needed.

type Program = semantic.Program
type Declaration = semantic.Declaration
type DeclKind = semantic.DeclKind
type Point = syntax.Point
type Range = syntax.Range
type Option = semantic.Option

// Load discovers the Python workspace rooted at root and returns its program
// snapshot.
func Load(root string, opts ...Option) (*Program, error) {
	return semantic.Load(root, opts...)
}

// WithIncludes restricts discovery to files matching the given globs.
func WithIncludes(globs ...string) Option { return semantic.WithIncludes(globs...) }

// WithExcludes demotes matching files from first-party code.
func WithExcludes(globs ...string) Option { return semantic.WithExcludes(globs...) }

// WithOpenFiles marks files as open in the client.
func WithOpenFiles(paths ...string) Option { return semantic.WithOpenFiles(paths...) }

// ItemKind is the display kind of a call-hierarchy item.
type ItemKind string

const (
	ItemModule   ItemKind = "module"
	ItemFunction ItemKind = "function"
	ItemClass    ItemKind = "class"
)

// Item is an externally facing call-hierarchy descriptor: a function, class,
// lambda, or module scope addressed by locator and source ranges. Items are
// built fresh per query and never persisted.
type Item struct {
	Name           string   `json:"name"`
	Kind           ItemKind `json:"kind"`
	File           string   `json:"file"`
	Range          Range    `json:"range"`
	SelectionRange Range    `json:"selectionRange"`
}

// IncomingCall is one caller scope together with every call site inside it,
// in source-discovery order.
type IncomingCall struct {
	From       Item    `json:"from"`
	FromRanges []Range `json:"fromRanges"`
}

// OutgoingCall is one callee together with every call site that reaches it
// from the queried function, in source-discovery order.
type OutgoingCall struct {
	To         Item    `json:"to"`
	FromRanges []Range `json:"fromRanges"`
}
