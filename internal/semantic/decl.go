// Package semantic builds and queries the declaration tables and the type
// oracle for a Python workspace. It owns the program snapshot a
// call-hierarchy query runs against: the discovered file set, parse trees,
// per-file scope bindings, and a type cache that can be relieved between
// whole-program scan iterations.
package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
)

// DeclKind classifies a declaration. The set is closed; consumers switch
// exhaustively and treat KindOther as "contributes nothing".
type DeclKind int

const (
	KindOther DeclKind = iota
	KindFunction
	KindClass
	KindVariable
	KindParam
	KindAlias
)

func (k DeclKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindParam:
		return "parameter"
	case KindAlias:
		return "alias"
	}
	return "other"
}

// Declaration is a semantic binding site: a name bound to its defining
// construct in one file. Declarations are re-derived on every binding pass,
// so identity is structural (same file, range, kind), never pointer equality.
type Declaration struct {
	Kind DeclKind
	Name string

	// Path is the workspace-relative slash path of the defining file.
	Path string

	// Range spans the whole defining construct; SelRange spans just the name.
	Range    syntax.Range
	SelRange syntax.Range

	// Node is the defining syntax node for functions and classes, the
	// assignment for variables. Nil for aliases.
	Node *sitter.Node

	// HasDeclaredType reports whether the declaration carries a resolvable
	// declared type: always for functions and classes, for variables and
	// parameters only when annotated.
	HasDeclaredType bool

	// TypeNode is the annotation expression for variables and parameters;
	// ValueNode is the assigned expression for variables. Either may be nil.
	TypeNode  *sitter.Node
	ValueNode *sitter.Node

	// Alias binding: Module is the (possibly relative) dotted import path,
	// Imported the exported name being bound. Imported is empty for a plain
	// `import m`, which binds the module object itself.
	Module   string
	Imported string
}

// Equal reports structural equality: two independently derived declarations
// denote the same binding site iff they agree on file, range, and kind.
func (d *Declaration) Equal(o *Declaration) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Kind == o.Kind && d.Path == o.Path && d.Range == o.Range
}
