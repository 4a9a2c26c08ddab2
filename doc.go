// Package understory builds call hierarchies for Python codebases: given a
// cursor position on a function, method, class, or import alias, it answers
// "who calls this" and "what does this call". It operates on tree-sitter
// syntax trees and a lexical declaration model, with no index on disk — every
// query is a single pass over a stable workspace snapshot.
//
// # Model
//
// A [Program] is the read-only snapshot of one workspace: the discovered
// Python files (gitignore- and glob-filtered), lazily parsed trees, per-file
// scope bindings, and a type cache the host may relieve between per-file
// scan iterations. A [Provider] runs queries against it.
//
// # Usage
//
// Load a workspace, create a Provider, and query:
//
//	program, err := understory.Load("path/to/project")
//	if err != nil { ... }
//	provider := understory.NewProvider(program)
//
//	ctx := context.Background()
//	item, err := provider.Prepare(ctx, "pkg/mod.py", understory.Point{Line: 10, Col: 4})
//	in, err := provider.IncomingCalls(ctx, "pkg/mod.py", understory.Point{Line: 10, Col: 4})
//	out, err := provider.OutgoingCalls(ctx, "pkg/mod.py", understory.Point{Line: 10, Col: 4})
//
// # Query API
//
// The [Provider] exposes three operations:
//
//   - [Provider.Prepare] — resolve the cursor to the single declaration a
//     hierarchy query centers on and describe it as an [Item].
//   - [Provider.IncomingCalls] — scan candidate files for call sites that
//     reach the declaration, grouped by caller scope (named function,
//     lambda, or module level).
//   - [Provider.OutgoingCalls] — walk the declaration's body (a class's own
//     constructor body for class targets) and resolve every call and
//     property access it makes.
//
// All three return nil with no error when there is nothing to report: no
// symbol at the position, an ineligible declaration kind, an alias that
// does not resolve to a function or class, or an empty record set.
// Cancelling the context aborts the in-flight query and surfaces ctx.Err()
// with no partial results.
//
// # Calls beyond call syntax
//
// Accessing an attribute backed by an accessor (@property and friends)
// invokes code, so such accesses count as calls in both directions even
// though no call syntax appears. Import aliases resolve through re-export
// chains to the underlying declaration; an outgoing record's displayed name
// is the resolved declaration's name even when a call site spells an alias.
package understory
