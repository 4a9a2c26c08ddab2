package understory

import (
	"context"
	"fmt"

	"github.com/jward/understory/internal/semantic"
)

// Provider answers call-hierarchy queries against a loaded Program.
//
// A Provider is safe for sequential reuse across queries; each query
// re-reads the program's cached trees, so results reflect the snapshot taken
// at Load time.
type Provider struct {
	program  *Program
	progress func(done, total int)
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithProgress installs a hook invoked during incoming-call scans, once per
// candidate file. Used by the CLI to drive a progress bar; nil disables it.
func WithProgress(fn func(done, total int)) ProviderOption {
	return func(p *Provider) { p.progress = fn }
}

// NewProvider creates a Provider over program.
func NewProvider(program *Program, opts ...ProviderOption) *Provider {
	p := &Provider{program: program}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare resolves the symbol at pos in file to a call-hierarchy item.
// Returns (nil, nil) when the position does not name a function, class, or
// an import of one.
func (pr *Provider) Prepare(ctx context.Context, file string, pos Point) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := pr.resolveTarget(ctx, file, pos)
	if err != nil || t == nil {
		return nil, err
	}
	item := t.item()
	return &item, nil
}

// IncomingCalls reports every location in the program that calls the symbol
// at pos. Callers are grouped by enclosing execution scope and ordered by
// first appearance in document order, files in sorted locator order.
// Returns (nil, nil) when the position does not resolve to a callable
// target or no calls exist.
func (pr *Provider) IncomingCalls(ctx context.Context, file string, pos Point) ([]IncomingCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := pr.resolveTarget(ctx, file, pos)
	if err != nil || t == nil {
		return nil, err
	}

	// An alias only means something inside the file that imported it, so
	// the scan stays in the querying file. A definition target is searched
	// program-wide across first-party and open files.
	var files []string
	if t.decl.Kind == semantic.KindAlias {
		files = []string{t.queryFile}
	} else {
		for _, f := range pr.program.SourceFiles() {
			if pr.program.IsFirstParty(f) || pr.program.IsOpen(f) {
				files = append(files, f)
			}
		}
	}

	agg := newCallAggregator()
	w := &incomingWalker{provider: pr, target: t, agg: agg}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.scanFile(ctx, f); err != nil {
			return nil, fmt.Errorf("scan %s: %w", f, err)
		}
		if pr.progress != nil {
			pr.progress(i+1, len(files))
		}
		pr.program.RelieveMemoryPressure()
	}
	return agg.incomingCalls(), nil
}

// OutgoingCalls reports every call made from within the body of the symbol
// at pos, in document order. For a class target the walked body is the
// class's own __init__, when it defines one. Returns (nil, nil) when the
// position does not resolve to a callable target, the target has no body to
// walk, or the body makes no calls.
func (pr *Provider) OutgoingCalls(ctx context.Context, file string, pos Point) ([]OutgoingCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := pr.resolveTarget(ctx, file, pos)
	if err != nil || t == nil {
		return nil, err
	}

	root := t.resolved
	if root.Kind == semantic.KindClass {
		ctor, err := pr.program.OwnConstructor(ctx, root)
		if err != nil {
			return nil, err
		}
		if ctor == nil {
			return nil, nil
		}
		root = ctor
	}
	if root.Node == nil {
		return nil, nil
	}

	agg := newCallAggregator()
	w := &outgoingWalker{provider: pr, agg: agg}
	if err := w.walkBody(ctx, root); err != nil {
		return nil, err
	}
	return agg.outgoingCalls(), nil
}
