// Package syntax wraps tree-sitter parsing of Python source and provides
// the node helpers the call-hierarchy walkers need: positions and ranges,
// position-to-node descent, and a visitor-style walk with per-node
// descend/skip control.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Point is a zero-based line/column position in a source file.
type Point struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range is a half-open source span from Start to End.
type Range struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Before reports whether p is strictly before q in source order.
func (p Point) Before(q Point) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// Contains reports whether the point falls inside the range (start inclusive,
// end exclusive).
func (r Range) Contains(p Point) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

// Tree is a parsed source file. Source bytes are retained because node text
// extraction requires them.
type Tree struct {
	Path   string
	Source []byte
	Root   *sitter.Node

	tree *sitter.Tree
}

// Parse parses Python source into a Tree. The path is a label carried on the
// result; no file I/O happens here.
func Parse(ctx context.Context, path string, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse %s: %w", path, err)
	}

	return &Tree{
		Path:   path,
		Source: src,
		Root:   tree.RootNode(),
		tree:   tree,
	}, nil
}

// Text returns the source text covered by a node.
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.Source)
}

// NodeRange converts a node's extent into a Range.
func NodeRange(n *sitter.Node) Range {
	start := n.StartPoint()
	end := n.EndPoint()
	return Range{
		Start: Point{Line: int(start.Row), Col: int(start.Column)},
		End:   Point{Line: int(end.Row), Col: int(end.Column)},
	}
}

// NodeAt descends from the root to the smallest named node containing pos.
// Returns nil if the position falls outside every named node.
func (t *Tree) NodeAt(pos Point) *sitter.Node {
	node := t.Root
	if node == nil || !NodeRange(node).Contains(pos) {
		return nil
	}
	for {
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if NodeRange(child).Contains(pos) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// Walk visits node and its subtree depth-first in source order. The visitor
// returns false to skip a node's children. Walk itself never errors; walkers
// that need cancellation check their context inside the visitor and record
// the error out-of-band.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		Walk(node.NamedChild(i), visit)
	}
}

// Ancestors walks up the parent chain from n (exclusive), calling fn for each
// ancestor until fn returns true or the root is passed.
func Ancestors(n *sitter.Node, fn func(*sitter.Node) bool) {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if fn(cur) {
			return
		}
	}
}

// SameNode reports whether two nodes denote the same syntax occurrence.
// Tree-sitter may hand out distinct Go pointers for one underlying node, so
// comparison is by type and extent.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type() == b.Type() &&
		a.StartByte() == b.StartByte() &&
		a.EndByte() == b.EndByte()
}
