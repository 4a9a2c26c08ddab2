package semantic

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
)

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeClass
	scopeFunction
	scopeLambda
)

// scope is one lexical binding region. names holds declarations per name in
// source order, oldest first — the anchor selection scan depends on that
// ordering.
type scope struct {
	kind   scopeKind
	node   *sitter.Node
	parent *scope
	names  map[string][]*Declaration
}

func (s *scope) declare(d *Declaration) {
	s.names[d.Name] = append(s.names[d.Name], d)
}

// nodeKey identifies a syntax node by byte extent. Tree-sitter may hand out
// distinct pointers for one node, so maps never key on *sitter.Node.
type nodeKey struct {
	start, end uint32
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte()}
}

// fileBinding is the bound scope table of one file.
type fileBinding struct {
	path       string
	tree       *syntax.Tree
	module     *scope
	scopes     map[nodeKey]*scope
	declByNode map[nodeKey]*Declaration // function/class declarations by defining node
}

// binding returns the cached scope table for a file, binding it on first use.
// Returns (nil, nil) when the file has no parse tree.
func (p *Program) binding(ctx context.Context, locator string) (*fileBinding, error) {
	if b, ok := p.bindings[locator]; ok {
		return b, nil
	}
	tree, err := p.ParseTree(ctx, locator)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		p.bindings[locator] = nil
		return nil, nil
	}
	b := bindFile(locator, tree)
	p.bindings[locator] = b
	return b, nil
}

type binder struct {
	path string
	tree *syntax.Tree
	out  *fileBinding
}

func bindFile(path string, tree *syntax.Tree) *fileBinding {
	b := &binder{path: path, tree: tree}
	b.out = &fileBinding{
		path:       path,
		tree:       tree,
		scopes:     make(map[nodeKey]*scope),
		declByNode: make(map[nodeKey]*Declaration),
	}
	b.out.module = b.newScope(scopeModule, tree.Root, nil)
	b.walk(tree.Root, b.out.module)
	return b.out
}

func (b *binder) newScope(kind scopeKind, node *sitter.Node, parent *scope) *scope {
	sc := &scope{kind: kind, node: node, parent: parent, names: make(map[string][]*Declaration)}
	b.out.scopes[keyOf(node)] = sc
	return sc
}

func (b *binder) walk(n *sitter.Node, sc *scope) {
	switch n.Type() {
	case syntax.NodeFunction:
		b.declareFunction(n, sc)
		return
	case syntax.NodeClass:
		b.declareClass(n, sc)
		return
	case syntax.NodeLambda:
		inner := b.newScope(scopeLambda, n, sc)
		b.declareParams(n.ChildByFieldName("parameters"), inner)
		if body := syntax.Body(n); body != nil {
			b.walk(body, inner)
		}
		return
	case "import_statement":
		b.declareImports(n, sc)
		return
	case "import_from_statement":
		b.declareFromImports(n, sc)
		return
	case "assignment":
		b.declareAssignment(n, sc)
	case "global_statement", "nonlocal_statement":
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.walk(n.NamedChild(i), sc)
	}
}

func (b *binder) declareFunction(def *sitter.Node, sc *scope) {
	name := def.ChildByFieldName("name")
	if name != nil {
		d := &Declaration{
			Kind:            KindFunction,
			Name:            b.tree.Text(name),
			Path:            b.path,
			Range:           syntax.NodeRange(def),
			SelRange:        syntax.NodeRange(name),
			Node:            def,
			HasDeclaredType: true,
		}
		sc.declare(d)
		b.out.declByNode[keyOf(def)] = d
	}
	inner := b.newScope(scopeFunction, def, sc)
	b.declareParams(def.ChildByFieldName("parameters"), inner)
	if body := syntax.Body(def); body != nil {
		b.walk(body, inner)
	}
}

func (b *binder) declareClass(def *sitter.Node, sc *scope) {
	name := def.ChildByFieldName("name")
	if name != nil {
		d := &Declaration{
			Kind:            KindClass,
			Name:            b.tree.Text(name),
			Path:            b.path,
			Range:           syntax.NodeRange(def),
			SelRange:        syntax.NodeRange(name),
			Node:            def,
			HasDeclaredType: true,
		}
		sc.declare(d)
		b.out.declByNode[keyOf(def)] = d
	}
	inner := b.newScope(scopeClass, def, sc)
	if body := syntax.Body(def); body != nil {
		b.walk(body, inner)
	}
}

func (b *binder) declareParams(params *sitter.Node, sc *scope) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		var name, typ *sitter.Node
		switch param.Type() {
		case syntax.NodeIdentifier:
			name = param
		case "typed_parameter":
			if param.NamedChildCount() > 0 {
				name = param.NamedChild(0)
			}
			typ = param.ChildByFieldName("type")
		case "default_parameter", "typed_default_parameter":
			name = param.ChildByFieldName("name")
			typ = param.ChildByFieldName("type")
		case "list_splat_pattern", "dictionary_splat_pattern":
			if param.NamedChildCount() > 0 {
				name = param.NamedChild(0)
			}
		}
		if name == nil || name.Type() != syntax.NodeIdentifier {
			continue
		}
		sc.declare(&Declaration{
			Kind:            KindParam,
			Name:            b.tree.Text(name),
			Path:            b.path,
			Range:           syntax.NodeRange(param),
			SelRange:        syntax.NodeRange(name),
			Node:            param,
			TypeNode:        typ,
			HasDeclaredType: typ != nil,
		})
	}
}

func (b *binder) declareAssignment(assign *sitter.Node, sc *scope) {
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != syntax.NodeIdentifier {
		return // attribute / tuple targets do not introduce lexical bindings here
	}
	typ := assign.ChildByFieldName("type")
	sc.declare(&Declaration{
		Kind:            KindVariable,
		Name:            b.tree.Text(left),
		Path:            b.path,
		Range:           syntax.NodeRange(assign),
		SelRange:        syntax.NodeRange(left),
		Node:            assign,
		TypeNode:        typ,
		ValueNode:       assign.ChildByFieldName("right"),
		HasDeclaredType: typ != nil,
	})
}

// declareImports binds `import a.b` and `import a.b as c` statements.
func (b *binder) declareImports(stmt *sitter.Node, sc *scope) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			full := b.tree.Text(child)
			// `import a.b` binds the top-level package name.
			bound := full
			if idx := strings.IndexByte(full, '.'); idx >= 0 {
				bound = full[:idx]
			}
			sc.declare(&Declaration{
				Kind:     KindAlias,
				Name:     bound,
				Path:     b.path,
				Range:    syntax.NodeRange(child),
				SelRange: syntax.NodeRange(child),
				Module:   full,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			sc.declare(&Declaration{
				Kind:     KindAlias,
				Name:     b.tree.Text(alias),
				Path:     b.path,
				Range:    syntax.NodeRange(child),
				SelRange: syntax.NodeRange(alias),
				Module:   b.tree.Text(name),
			})
		}
	}
}

// declareFromImports binds `from m import x`, `from m import x as y`, and
// ignores wildcard imports.
func (b *binder) declareFromImports(stmt *sitter.Node, sc *scope) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	module := b.tree.Text(moduleNode)

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		if syntax.SameNode(child, moduleNode) {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			text := b.tree.Text(child)
			sc.declare(&Declaration{
				Kind:     KindAlias,
				Name:     text,
				Path:     b.path,
				Range:    syntax.NodeRange(child),
				SelRange: syntax.NodeRange(child),
				Module:   module,
				Imported: text,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			sc.declare(&Declaration{
				Kind:     KindAlias,
				Name:     b.tree.Text(alias),
				Path:     b.path,
				Range:    syntax.NodeRange(child),
				SelRange: syntax.NodeRange(alias),
				Module:   module,
				Imported: b.tree.Text(name),
			})
		}
	}
}

// scopeFor returns the innermost scope containing n.
func (fb *fileBinding) scopeFor(n *sitter.Node) *scope {
	for cur := n; cur != nil; cur = cur.Parent() {
		if sc, ok := fb.scopes[keyOf(cur)]; ok {
			return sc
		}
	}
	return fb.module
}

// lookup resolves a name lexically from the position of `from`, returning the
// source-ordered declarations of the nearest scope that binds it. Class
// scopes are only visible to code directly in the class body, matching
// Python's scoping rules.
func (fb *fileBinding) lookup(from *sitter.Node, name string) []*Declaration {
	start := fb.scopeFor(from)
	for sc := start; sc != nil; sc = sc.parent {
		if sc.kind == scopeClass && sc != start {
			continue
		}
		if decls := sc.names[name]; len(decls) > 0 {
			return decls
		}
	}
	return nil
}

// classScope returns the scope of a class declaration's body, or nil.
func (p *Program) classScope(ctx context.Context, class *Declaration) (*scope, error) {
	if class == nil || class.Kind != KindClass || class.Node == nil {
		return nil, nil
	}
	fb, err := p.binding(ctx, class.Path)
	if err != nil || fb == nil {
		return nil, err
	}
	return fb.scopes[keyOf(class.Node)], nil
}

// OwnConstructor returns the `__init__` defined directly in the class body,
// or nil when the class declares none of its own. Inherited constructors are
// deliberately not consulted.
func (p *Program) OwnConstructor(ctx context.Context, class *Declaration) (*Declaration, error) {
	sc, err := p.classScope(ctx, class)
	if err != nil || sc == nil {
		return nil, err
	}
	decls := sc.names["__init__"]
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Kind == KindFunction {
			return decls[i], nil
		}
	}
	return nil, nil
}
