package semantic

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
)

// Reference is the result of locating a symbol occurrence: the exact name
// node, its tree, the candidate declarations (oldest first), and the literal
// names known for the occurrence.
type Reference struct {
	Node  *sitter.Node
	Tree  *syntax.Tree
	Decls []*Declaration
	Names []string
}

// DeclarationsAt locates the symbol under a cursor position and returns its
// candidate declarations. Returns (nil, nil) when the position holds no
// resolvable name — a soft failure, never an error.
func (p *Program) DeclarationsAt(ctx context.Context, locator string, pos syntax.Point) (*Reference, error) {
	fb, err := p.binding(ctx, locator)
	if err != nil || fb == nil {
		return nil, err
	}
	node := fb.tree.NodeAt(pos)
	if node == nil || node.Type() != syntax.NodeIdentifier {
		return nil, nil
	}
	decls, err := p.declarationsForIdentifier(ctx, fb, node)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return nil, nil
	}
	return &Reference{
		Node:  node,
		Tree:  fb.tree,
		Decls: decls,
		Names: []string{fb.tree.Text(node)},
	}, nil
}

// DeclarationsForName resolves an identifier occurrence inside a file to its
// candidate declarations. Attribute names resolve through the type oracle's
// member lookup; everything else resolves lexically. Alias candidates are
// returned as-is — resolving them is the caller's explicit separate step.
func (p *Program) DeclarationsForName(ctx context.Context, locator string, node *sitter.Node) ([]*Declaration, error) {
	fb, err := p.binding(ctx, locator)
	if err != nil || fb == nil {
		return nil, err
	}
	return p.declarationsForIdentifier(ctx, fb, node)
}

func (p *Program) declarationsForIdentifier(ctx context.Context, fb *fileBinding, node *sitter.Node) ([]*Declaration, error) {
	parent := node.Parent()
	if parent == nil {
		return nil, nil
	}
	switch parent.Type() {
	case syntax.NodeAttribute:
		if attr := syntax.AttributeName(parent); attr != nil && syntax.SameNode(attr, node) {
			return p.memberDeclarations(ctx, fb, parent, fb.tree.Text(node))
		}
	case syntax.NodeFunction, syntax.NodeClass:
		// The name of a definition is not a lexical reference: a method's
		// declaration lives in the class scope, which lexical lookup from
		// inside the method rightly cannot see. Resolve it by node.
		if name := syntax.DefinitionName(parent); name != nil && syntax.SameNode(name, node) {
			if d := fb.declByNode[keyOf(parent)]; d != nil {
				return []*Declaration{d}, nil
			}
		}
	}
	return fb.lookup(node, fb.tree.Text(node)), nil
}

// memberDeclarations resolves `obj.name` by typing obj and looking the name
// up on every concrete class the type covers.
func (p *Program) memberDeclarations(ctx context.Context, fb *fileBinding, attr *sitter.Node, name string) ([]*Declaration, error) {
	obj := syntax.AttributeObject(attr)
	if obj == nil {
		return nil, nil
	}
	t, err := p.TypeOf(ctx, fb.path, obj)
	if err != nil {
		return nil, err
	}
	var decls []*Declaration
	for _, sub := range p.Concretize(t).Subtypes() {
		member, lookErr := p.LookupMember(ctx, sub, name)
		if lookErr != nil {
			return nil, lookErr
		}
		if member != nil {
			decls = append(decls, member.Decls...)
		}
	}
	return decls, nil
}

// ResolveAlias follows an alias declaration through import chains to the
// underlying declaration. Returns (nil, nil) when the chain dead-ends: an
// unresolvable module, a missing exported name, an import cycle, or a plain
// module import (a module object is neither a function nor a class).
func (p *Program) ResolveAlias(ctx context.Context, d *Declaration) (*Declaration, error) {
	type site struct {
		path string
		r    syntax.Range
	}
	seen := make(map[site]bool)

	for d != nil && d.Kind == KindAlias {
		if d.Imported == "" {
			return nil, nil
		}
		at := site{path: d.Path, r: d.Range}
		if seen[at] {
			return nil, nil
		}
		seen[at] = true

		target := p.moduleFile(d.Module, d.Path)
		if target == "" {
			return nil, nil
		}
		fb, err := p.binding(ctx, target)
		if err != nil {
			return nil, err
		}
		if fb == nil {
			return nil, nil
		}
		decls := fb.module.names[d.Imported]
		if len(decls) == 0 {
			return nil, nil
		}
		d = decls[len(decls)-1]
	}
	return d, nil
}

// moduleFile maps a dotted import path (possibly relative, with leading dots)
// to a workspace file locator. Returns "" when the module is not part of the
// snapshot — third-party and stdlib imports resolve to nothing on purpose.
func (p *Program) moduleFile(module, fromPath string) string {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	rest := module[dots:]

	base := ""
	if dots > 0 {
		base = path.Dir(fromPath)
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		if base == "." {
			base = ""
		}
	}

	rel := strings.ReplaceAll(rest, ".", "/")
	candidates := []string{}
	if rel != "" {
		candidates = append(candidates,
			path.Join(base, rel+".py"),
			path.Join(base, rel, "__init__.py"),
		)
	} else if dots > 0 {
		candidates = append(candidates, path.Join(base, "__init__.py"))
	}

	for _, c := range candidates {
		if p.fileSet[c] {
			return c
		}
	}
	return ""
}
