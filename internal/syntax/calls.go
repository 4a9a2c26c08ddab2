package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Python grammar node types the walkers dispatch on.
const (
	NodeModule     = "module"
	NodeCall       = "call"
	NodeAttribute  = "attribute"
	NodeIdentifier = "identifier"
	NodeFunction   = "function_definition"
	NodeClass      = "class_definition"
	NodeLambda     = "lambda"
	NodeDecorated  = "decorated_definition"
	NodeBlock      = "block"
)

// CalleeName returns the name node invoked by a call expression: the bare
// identifier, or the rightmost name of a member access. Returns nil for
// computed callees (subscripts, nested calls) that carry no single name.
func CalleeName(call *sitter.Node) *sitter.Node {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case NodeIdentifier:
		return fn
	case NodeAttribute:
		return AttributeName(fn)
	}
	return nil
}

// AttributeObject returns the left-hand expression of a member access.
func AttributeObject(attr *sitter.Node) *sitter.Node {
	return attr.ChildByFieldName("object")
}

// AttributeName returns the member name node of a member access.
func AttributeName(attr *sitter.Node) *sitter.Node {
	return attr.ChildByFieldName("attribute")
}

// IsCallee reports whether the attribute node is itself the callee of an
// enclosing call (`a.b(...)` as opposed to a bare `a.b`).
func IsCallee(attr *sitter.Node) bool {
	parent := attr.Parent()
	if parent == nil || parent.Type() != NodeCall {
		return false
	}
	fn := parent.ChildByFieldName("function")
	return fn != nil && SameNode(fn, attr)
}

// DefinitionName returns the name node of a function or class definition,
// or nil for other node types.
func DefinitionName(def *sitter.Node) *sitter.Node {
	switch def.Type() {
	case NodeFunction, NodeClass:
		return def.ChildByFieldName("name")
	}
	return nil
}

// Body returns the block node of a function or class definition, or the body
// expression of a lambda.
func Body(def *sitter.Node) *sitter.Node {
	return def.ChildByFieldName("body")
}

// ExecutionScope walks lexical ancestors of n until it finds the nearest
// enclosing execution scope: a named function/method, a lambda, or the module
// root. The given node itself is never returned.
func ExecutionScope(n *sitter.Node) *sitter.Node {
	var scope *sitter.Node
	Ancestors(n, func(anc *sitter.Node) bool {
		switch anc.Type() {
		case NodeFunction, NodeLambda, NodeModule:
			scope = anc
			return true
		}
		return false
	})
	return scope
}

// EnclosingClass returns the class definition whose body lexically contains
// def, without crossing an intervening function scope. Used to recognize
// methods and to type `self`.
func EnclosingClass(def *sitter.Node) *sitter.Node {
	cur := def.Parent()
	// A decorated definition sits between the def and the class body.
	if cur != nil && cur.Type() == NodeDecorated {
		cur = cur.Parent()
	}
	if cur == nil || cur.Type() != NodeBlock {
		return nil
	}
	parent := cur.Parent()
	if parent != nil && parent.Type() == NodeClass {
		return parent
	}
	return nil
}

// Decorators returns the decorator expression nodes attached to a function or
// class definition, or nil when the definition is undecorated.
func Decorators(def *sitter.Node) []*sitter.Node {
	parent := def.Parent()
	if parent == nil || parent.Type() != NodeDecorated {
		return nil
	}
	var decs []*sitter.Node
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() == "decorator" && child.NamedChildCount() > 0 {
			decs = append(decs, child.NamedChild(0))
		}
	}
	return decs
}
