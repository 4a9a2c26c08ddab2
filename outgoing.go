package understory

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/semantic"
	"github.com/jward/understory/internal/syntax"
)

// outgoingWalker collects every call made from one declaration's body.
type outgoingWalker struct {
	provider *Provider
	agg      *callAggregator
}

// walkBody visits root's body subtree in document order, recording direct
// calls and property accesses. Nested function and class definitions belong
// to the subtree and are included.
func (w *outgoingWalker) walkBody(ctx context.Context, root *Declaration) error {
	tree, err := w.provider.program.ParseTree(ctx, root.Path)
	if err != nil || tree == nil {
		return err
	}
	body := syntax.Body(root.Node)
	if body == nil {
		return nil
	}

	var walkErr error
	syntax.Walk(body, func(n *sitter.Node) bool {
		if walkErr != nil {
			return false
		}
		switch n.Type() {
		case syntax.NodeCall:
			walkErr = w.visitCall(ctx, tree, n)
		case syntax.NodeAttribute:
			if !syntax.IsCallee(n) {
				walkErr = w.visitAttribute(ctx, tree, n)
			}
		}
		return walkErr == nil
	})
	if walkErr != nil {
		return walkErr
	}
	return ctx.Err()
}

// visitCall records an edge for each declaration the callee name resolves
// to. Computed callees (subscripts, call results) have no name to resolve
// and are skipped.
func (w *outgoingWalker) visitCall(ctx context.Context, tree *syntax.Tree, call *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	callee := syntax.CalleeName(call)
	if callee == nil {
		return nil
	}
	decls, err := w.provider.program.DeclarationsForName(ctx, tree.Path, callee)
	if err != nil {
		return err
	}
	literal := tree.Text(callee)
	at := syntax.NodeRange(callee)
	for _, d := range decls {
		if err := w.addEdge(ctx, d, literal, at); err != nil {
			return err
		}
	}
	return nil
}

// visitAttribute records an edge when the accessed member is a property;
// reading or writing a property executes its accessor, which counts as a
// call.
func (w *outgoingWalker) visitAttribute(ctx context.Context, tree *syntax.Tree, attr *sitter.Node) error {
	t, err := w.provider.program.TypeOf(ctx, tree.Path, attr)
	if err != nil {
		return err
	}
	if t == nil || !t.IsProperty() {
		return nil
	}
	name := syntax.AttributeName(attr)
	if name == nil {
		return nil
	}
	decls, err := w.provider.program.DeclarationsForName(ctx, tree.Path, name)
	if err != nil {
		return err
	}
	literal := tree.Text(name)
	at := syntax.NodeRange(name)
	for _, d := range decls {
		if d.Kind != semantic.KindFunction {
			continue
		}
		if err := w.addEdge(ctx, d, literal, at); err != nil {
			return err
		}
	}
	return nil
}

// addEdge resolves d through any alias chain and records a call edge when
// the destination is a function or class. Variables and parameters never
// produce edges even when their value is callable.
func (w *outgoingWalker) addEdge(ctx context.Context, d *Declaration, literal string, at Range) error {
	resolved := d
	if d.Kind == semantic.KindAlias {
		var err error
		resolved, err = w.provider.program.ResolveAlias(ctx, d)
		if err != nil {
			return err
		}
	}
	if resolved == nil {
		return nil
	}
	var kind ItemKind
	switch resolved.Kind {
	case semantic.KindFunction:
		kind = ItemFunction
	case semantic.KindClass:
		kind = ItemClass
	default:
		return nil
	}
	if !w.provider.program.IsNavigable(resolved.Path) {
		return nil
	}
	w.agg.addCallee(Item{
		Name:           resolved.Name,
		Kind:           kind,
		File:           resolved.Path,
		Range:          resolved.Range,
		SelectionRange: resolved.SelRange,
	}, literal, at)
	return nil
}
