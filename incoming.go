package understory

import (
	"bytes"
	"context"
	"path"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/semantic"
	"github.com/jward/understory/internal/syntax"
)

// incomingWalker finds every call site in the program that reaches one
// target declaration.
type incomingWalker struct {
	provider *Provider
	target   *target
	agg      *callAggregator
}

// scanFile walks one file for calls to the target. Files whose source never
// mentions the target's name are skipped without a tree walk; candidate
// sites are then confirmed by resolving the name at each site back to the
// target declaration.
func (w *incomingWalker) scanFile(ctx context.Context, locator string) error {
	tree, err := w.provider.program.ParseTree(ctx, locator)
	if err != nil || tree == nil {
		return err
	}
	if !bytes.Contains(tree.Source, []byte(w.target.name)) {
		return nil
	}

	var walkErr error
	syntax.Walk(tree.Root, func(n *sitter.Node) bool {
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

func (w *incomingWalker) visitCall(ctx context.Context, tree *syntax.Tree, call *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	callee := syntax.CalleeName(call)
	if callee == nil || tree.Text(callee) != w.target.name {
		return nil
	}
	ok, err := w.confirm(ctx, tree, callee)
	if err != nil || !ok {
		return err
	}
	w.agg.addCaller(w.callerItem(tree, callee), syntax.NodeRange(callee))
	return nil
}

// visitAttribute matches property reads and writes against a property
// accessor target; evaluating the attribute runs the accessor, so the site
// counts as a call.
func (w *incomingWalker) visitAttribute(ctx context.Context, tree *syntax.Tree, attr *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := syntax.AttributeName(attr)
	if name == nil || tree.Text(name) != w.target.name {
		return nil
	}
	t, err := w.provider.program.TypeOf(ctx, tree.Path, attr)
	if err != nil {
		return err
	}
	if t == nil || !t.IsProperty() {
		return nil
	}
	ok, err := w.confirm(ctx, tree, name)
	if err != nil || !ok {
		return err
	}
	w.agg.addCaller(w.callerItem(tree, name), syntax.NodeRange(name))
	return nil
}

// confirm resolves the name at a candidate site and reports whether any
// resulting declaration, after alias resolution, is the target.
func (w *incomingWalker) confirm(ctx context.Context, tree *syntax.Tree, name *sitter.Node) (bool, error) {
	decls, err := w.provider.program.DeclarationsForName(ctx, tree.Path, name)
	if err != nil {
		return false, err
	}
	for _, d := range decls {
		resolved := d
		if d.Kind == semantic.KindAlias {
			resolved, err = w.provider.program.ResolveAlias(ctx, d)
			if err != nil {
				return false, err
			}
		}
		if resolved != nil && resolved.Equal(w.target.resolved) {
			return true, nil
		}
	}
	return false, nil
}

// callerItem describes the execution scope enclosing a matched site: the
// named function it sits in, "(lambda)" for lambda bodies, or the module
// itself for top-level code.
func (w *incomingWalker) callerItem(tree *syntax.Tree, site *sitter.Node) Item {
	scope := syntax.ExecutionScope(site)
	switch {
	case scope == nil || scope.Type() == syntax.NodeModule:
		return Item{
			Name: "(module) " + path.Base(tree.Path),
			Kind: ItemModule,
			File: tree.Path,
		}
	case scope.Type() == syntax.NodeLambda:
		r := syntax.NodeRange(scope)
		return Item{
			Name:           "(lambda)",
			Kind:           ItemFunction,
			File:           tree.Path,
			Range:          r,
			SelectionRange: r,
		}
	default:
		item := Item{
			Kind:  ItemFunction,
			File:  tree.Path,
			Range: syntax.NodeRange(scope),
		}
		if name := syntax.DefinitionName(scope); name != nil {
			item.Name = tree.Text(name)
			item.SelectionRange = syntax.NodeRange(name)
		}
		return item
	}
}
