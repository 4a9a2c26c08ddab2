package understory

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/semantic"
	"github.com/jward/understory/internal/syntax"
)

// target is the resolved center of one hierarchy query.
type target struct {
	// decl is the selected declaration, possibly an alias.
	decl *Declaration
	// resolved is the underlying function or class; equal to decl when decl
	// is not an alias.
	resolved *Declaration
	// name is the symbol text call sites are matched against: the literal
	// cursor spelling for an alias, the declaration's own name otherwise.
	name string
	// originFile is the locator the prepared item reports; queryFile is the
	// file the cursor sits in.
	originFile string
	queryFile  string
}

// resolveTarget turns a cursor position into the single declaration the
// query centers on. Returns (nil, nil) for every soft failure: no symbol at
// the position, an ineligible declaration kind, or an alias that does not
// resolve to a function or class.
func (pr *Provider) resolveTarget(ctx context.Context, file string, pos Point) (*target, error) {
	locator := pr.program.Locator(file)
	ref, err := pr.program.DeclarationsAt(ctx, locator, pos)
	if err != nil || ref == nil {
		return nil, err
	}

	decl := selectTarget(ref.Decls, ref.Node)

	resolved := decl
	if decl.Kind == semantic.KindAlias {
		resolved, err = pr.program.ResolveAlias(ctx, decl)
		if err != nil {
			return nil, err
		}
	}
	if resolved == nil {
		return nil, nil
	}
	switch resolved.Kind {
	case semantic.KindFunction, semantic.KindClass:
	default:
		return nil, nil
	}

	name := decl.Name
	if decl.Kind == semantic.KindAlias {
		name = ref.Tree.Text(ref.Node)
	}
	if name == "" && len(ref.Names) > 0 {
		name = ref.Names[0]
	}

	origin := resolved.Path
	if decl.Kind == semantic.KindAlias {
		origin = locator
	}
	// The item must point somewhere the host can navigate to; a target in a
	// file outside the discovered snapshot is dropped, not reported.
	if !pr.program.IsNavigable(origin) {
		return nil, nil
	}

	return &target{
		decl:       decl,
		resolved:   resolved,
		name:       name,
		originFile: origin,
		queryFile:  locator,
	}, nil
}

// selectTarget picks one declaration from the cursor's candidate list
// (ordered oldest to newest). A candidate whose declared name is exactly the
// occurrence under the cursor wins immediately; otherwise the scan favors
// function/class candidates that carry a resolvable declared type, later
// candidates winning ties.
func selectTarget(candidates []*Declaration, occurrence *sitter.Node) *Declaration {
	at := syntax.NodeRange(occurrence)
	tgt := candidates[0]
	for _, d := range candidates {
		if d.SelRange == at {
			return d
		}
		if (d.HasDeclaredType || !tgt.HasDeclaredType) &&
			(d.Kind == semantic.KindFunction || d.Kind == semantic.KindClass) {
			tgt = d
		}
	}
	return tgt
}

// item describes the target as a call-hierarchy descriptor. An alias target
// is presented at its import site in the querying file under its local
// spelling; anything else is presented at its definition.
func (t *target) item() Item {
	kind := ItemFunction
	if t.resolved.Kind == semantic.KindClass {
		kind = ItemClass
	}
	if t.decl.Kind == semantic.KindAlias {
		return Item{
			Name:           t.name,
			Kind:           kind,
			File:           t.originFile,
			Range:          t.decl.Range,
			SelectionRange: t.decl.SelRange,
		}
	}
	return Item{
		Name:           t.resolved.Name,
		Kind:           kind,
		File:           t.resolved.Path,
		Range:          t.resolved.Range,
		SelectionRange: t.resolved.SelRange,
	}
}
