package semantic

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
)

// TypeKind classifies an inferred type.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeClass            // the class object itself
	TypeInstance         // an instance of Class
	TypeCallable         // a plain function or method
	TypeProperty         // an accessor construct; attribute access invokes it
	TypeUnion
)

// Type is the oracle's answer for an expression or member. Exactly the
// fields relevant to Kind are set: Class for TypeClass/TypeInstance, Decl
// for TypeCallable/TypeProperty, Members for TypeUnion.
type Type struct {
	Kind    TypeKind
	Class   *Declaration
	Decl    *Declaration
	Members []*Type
}

var unknownType = &Type{Kind: TypeUnknown}

// Subtypes returns the concrete alternatives a type covers: the union
// members for a union, the type itself otherwise.
func (t *Type) Subtypes() []*Type {
	if t == nil {
		return nil
	}
	if t.Kind == TypeUnion {
		return t.Members
	}
	return []*Type{t}
}

// IsClassLike reports whether member lookup applies: an instance or the
// class object itself.
func (t *Type) IsClassLike() bool {
	return t != nil && (t.Kind == TypeInstance || t.Kind == TypeClass)
}

// IsProperty reports whether attribute access on this member behaves as an
// invocation.
func (t *Type) IsProperty() bool {
	return t != nil && t.Kind == TypeProperty
}

// Member is a named class member with all its declarations.
type Member struct {
	Name  string
	Decls []*Declaration
}

type typeKey struct {
	path       string
	start, end uint32
}

// TypeOf infers the type of an expression node in a file. Inference results
// are cached until the host relieves memory pressure. Unresolvable
// expressions yield TypeUnknown, never an error; the only surfaced error is
// context cancellation.
func (p *Program) TypeOf(ctx context.Context, locator string, expr *sitter.Node) (*Type, error) {
	if expr == nil {
		return unknownType, nil
	}
	key := typeKey{path: locator, start: expr.StartByte(), end: expr.EndByte()}
	if t, ok := p.types[key]; ok {
		return t, nil
	}
	if p.typesInFlight[key] {
		return unknownType, nil
	}
	p.typesInFlight[key] = true
	defer delete(p.typesInFlight, key)

	t, err := p.inferType(ctx, locator, expr)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = unknownType
	}
	p.types[key] = t
	return t, nil
}

func (p *Program) inferType(ctx context.Context, locator string, expr *sitter.Node) (*Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fb, err := p.binding(ctx, locator)
	if err != nil || fb == nil {
		return unknownType, err
	}

	switch expr.Type() {
	case syntax.NodeIdentifier:
		text := fb.tree.Text(expr)
		if text == "self" {
			if class := p.enclosingClassDecl(fb, expr); class != nil {
				return &Type{Kind: TypeInstance, Class: class}, nil
			}
		}
		decls := fb.lookup(expr, text)
		for i := len(decls) - 1; i >= 0; i-- {
			t, dErr := p.declaredType(ctx, decls[i])
			if dErr != nil {
				return nil, dErr
			}
			if t.Kind != TypeUnknown {
				return t, nil
			}
		}
		return unknownType, nil

	case syntax.NodeCall:
		fn, fErr := p.TypeOf(ctx, locator, expr.ChildByFieldName("function"))
		if fErr != nil {
			return nil, fErr
		}
		if fn.Kind == TypeClass {
			return &Type{Kind: TypeInstance, Class: fn.Class}, nil
		}
		return unknownType, nil

	case syntax.NodeAttribute:
		obj, oErr := p.TypeOf(ctx, locator, syntax.AttributeObject(expr))
		if oErr != nil {
			return nil, oErr
		}
		name := syntax.AttributeName(expr)
		if name == nil {
			return unknownType, nil
		}
		for _, sub := range p.Concretize(obj).Subtypes() {
			member, mErr := p.LookupMember(ctx, sub, fb.tree.Text(name))
			if mErr != nil {
				return nil, mErr
			}
			if member != nil {
				return p.MemberType(ctx, member)
			}
		}
		return unknownType, nil

	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return p.TypeOf(ctx, locator, expr.NamedChild(0))
		}
	}
	return unknownType, nil
}

// declaredType resolves the type a declaration binds its name to.
func (p *Program) declaredType(ctx context.Context, d *Declaration) (*Type, error) {
	switch d.Kind {
	case KindFunction:
		return &Type{Kind: TypeCallable, Decl: d}, nil
	case KindClass:
		return &Type{Kind: TypeClass, Class: d}, nil
	case KindAlias:
		resolved, err := p.ResolveAlias(ctx, d)
		if err != nil || resolved == nil {
			return unknownType, err
		}
		return p.declaredType(ctx, resolved)
	case KindVariable, KindParam:
		if d.TypeNode != nil {
			return p.annotationType(ctx, d.Path, d.TypeNode)
		}
		if d.ValueNode != nil {
			return p.TypeOf(ctx, d.Path, d.ValueNode)
		}
	}
	return unknownType, nil
}

// annotationType interprets a type annotation: `x: C` yields an instance of
// C. Subscripted and string annotations stay unknown.
func (p *Program) annotationType(ctx context.Context, locator string, ann *sitter.Node) (*Type, error) {
	// The grammar wraps annotations in a `type` node.
	if ann.Type() == "type" && ann.NamedChildCount() > 0 {
		ann = ann.NamedChild(0)
	}
	if ann.Type() != syntax.NodeIdentifier && ann.Type() != syntax.NodeAttribute {
		return unknownType, nil
	}
	t, err := p.TypeOf(ctx, locator, ann)
	if err != nil {
		return nil, err
	}
	if t.Kind == TypeClass {
		return &Type{Kind: TypeInstance, Class: t.Class}, nil
	}
	return unknownType, nil
}

// Concretize normalizes a type for member-lookup purposes: unions are
// flattened one level and type variables collapse to their concrete bound.
func (p *Program) Concretize(t *Type) *Type {
	if t == nil {
		return unknownType
	}
	if t.Kind != TypeUnion {
		return t
	}
	var flat []*Type
	for _, m := range t.Members {
		flat = append(flat, m.Subtypes()...)
	}
	return &Type{Kind: TypeUnion, Members: flat}
}

// LookupMember finds a directly declared class member. Base classes are not
// consulted: inherited members resolve at their defining class, keeping
// declaration identity anchored to where the member is written.
func (p *Program) LookupMember(ctx context.Context, t *Type, name string) (*Member, error) {
	if !t.IsClassLike() {
		return nil, nil
	}
	sc, err := p.classScope(ctx, t.Class)
	if err != nil || sc == nil {
		return nil, err
	}
	decls := sc.names[name]
	if len(decls) == 0 {
		return nil, nil
	}
	return &Member{Name: name, Decls: decls}, nil
}

// MemberType resolves a member to its type, preferring the newest
// declaration that yields one. Property-decorated functions surface as
// TypeProperty so attribute access counts as a call.
func (p *Program) MemberType(ctx context.Context, m *Member) (*Type, error) {
	for i := len(m.Decls) - 1; i >= 0; i-- {
		d := m.Decls[i]
		if d.Kind == KindFunction {
			prop, err := p.isPropertyDecl(ctx, d)
			if err != nil {
				return nil, err
			}
			if prop {
				return &Type{Kind: TypeProperty, Decl: d}, nil
			}
		}
		t, err := p.declaredType(ctx, d)
		if err != nil {
			return nil, err
		}
		if t.Kind != TypeUnknown {
			return t, nil
		}
	}
	return unknownType, nil
}

// isPropertyDecl reports whether a function declaration is an accessor:
// decorated with @property (or a cached variant) or a setter/getter/deleter.
func (p *Program) isPropertyDecl(ctx context.Context, d *Declaration) (bool, error) {
	if d.Kind != KindFunction || d.Node == nil {
		return false, nil
	}
	fb, err := p.binding(ctx, d.Path)
	if err != nil || fb == nil {
		return false, err
	}
	for _, dec := range syntax.Decorators(d.Node) {
		text := fb.tree.Text(dec)
		switch {
		case text == "property",
			text == "cached_property",
			text == "functools.cached_property",
			strings.HasSuffix(text, ".setter"),
			strings.HasSuffix(text, ".getter"),
			strings.HasSuffix(text, ".deleter"):
			return true, nil
		}
	}
	return false, nil
}

// enclosingClassDecl finds the declaration of the class whose method
// directly contains n. Used to type `self`: the nearest def must itself be a
// method, so a nested helper's `self` parameter stays untyped. Lambdas are
// transparent — they introduce no `self` of their own.
func (p *Program) enclosingClassDecl(fb *fileBinding, n *sitter.Node) *Declaration {
	var def *sitter.Node
	syntax.Ancestors(n, func(anc *sitter.Node) bool {
		if anc.Type() == syntax.NodeFunction {
			def = anc
			return true
		}
		return false
	})
	if def == nil {
		return nil
	}
	classNode := syntax.EnclosingClass(def)
	if classNode == nil {
		return nil
	}
	return fb.declByNode[keyOf(classNode)]
}
