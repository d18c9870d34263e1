package grammar

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree wraps a parsed tree-sitter tree with the source bytes it was parsed
// from and the language that produced it, so callers never need to thread
// src separately.
type Tree struct {
	raw        *sitter.Tree
	src        []byte
	lang       Language
	sitterLang *sitter.Language
}

// Close releases the tree-sitter tree. Callers must call this once done.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

// Language reports which grammar produced this tree.
func (t *Tree) Language() Language {
	return t.lang
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.src
}

// Root returns the root Node of the tree.
func (t *Tree) Root() Node {
	return wrapNode(t.raw.RootNode(), t.src)
}

// Errors walks the tree and returns every ERROR or missing node, used by
// the Diagnostics Emitter to report syntax errors.
func (t *Tree) Errors() []Node {
	var errs []Node
	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		if n.IsError() || n.IsMissing() {
			errs = append(errs, wrapNode(n, t.src))
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			if c := n.Child(i); c != nil {
				walk(*c)
			}
		}
	}
	walk(t.raw.RootNode())
	return errs
}

// Node wraps a tree-sitter node plus the source bytes needed to read its
// text, giving the rest of the pipeline a single type to pass around
// regardless of which grammar produced it. The zero Node is invalid; valid
// is set explicitly wherever a Node is built from a real tree-sitter node,
// so Valid() never has to infer absence from a zero-valued sitter.Node.
type Node struct {
	raw   sitter.Node
	src   []byte
	valid bool
}

func wrapNode(raw sitter.Node, src []byte) Node {
	return Node{raw: raw, src: src, valid: true}
}

// Valid reports whether the Node wraps an actual tree-sitter node.
func (n Node) Valid() bool { return n.valid }

// Kind returns the grammar's node type name (e.g. "class_declaration").
func (n Node) Kind() string { return n.raw.Kind() }

// Text returns the node's source text.
func (n Node) Text() string { return n.raw.Utf8Text(n.src) }

// Span returns the node's byte/line/column extent using the same 0-based
// convention tree-sitter and the Symbol Index both use.
func (n Node) Span() Span {
	start, end := n.raw.StartPosition(), n.raw.EndPosition()
	return Span{
		StartByte: int(n.raw.StartByte()), StartLine: int(start.Row), StartCol: int(start.Column),
		EndByte: int(n.raw.EndByte()), EndLine: int(end.Row), EndCol: int(end.Column),
	}
}

// Span mirrors internal/store.Span without importing the store package
// (grammar stays a leaf with no dependency on the index).
type Span struct {
	StartByte, StartLine, StartCol int
	EndByte, EndLine, EndCol       int
}

// ChildByField returns the named field child (e.g. "name", "body"), or an
// invalid Node if absent.
func (n Node) ChildByField(name string) Node {
	c := n.raw.ChildByFieldName(name)
	if c == nil {
		return Node{}
	}
	return wrapNode(*c, n.src)
}

// NamedChildren returns every named (non-anonymous) child node.
func (n Node) NamedChildren() []Node {
	count := n.raw.NamedChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.raw.NamedChild(i); c != nil {
			out = append(out, wrapNode(*c, n.src))
		}
	}
	return out
}

// Children returns every child node, named or anonymous.
func (n Node) Children() []Node {
	count := n.raw.ChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.raw.Child(i); c != nil {
			out = append(out, wrapNode(*c, n.src))
		}
	}
	return out
}

// Parent returns the node's parent, or an invalid Node at the root.
func (n Node) Parent() Node {
	p := n.raw.Parent()
	if p == nil {
		return Node{}
	}
	return wrapNode(*p, n.src)
}

// NodeAt returns the smallest named descendant of n containing byte offset
// pos, used by the Cursor Classifier to locate the identifier
// under the cursor.
func (n Node) NodeAt(pos int) Node {
	best := n
	for {
		found := Node{}
		for _, c := range best.NamedChildren() {
			s := c.Span()
			if s.StartByte <= pos && pos <= s.EndByte {
				found = c
				break
			}
		}
		if !found.Valid() {
			return best
		}
		best = found
	}
}
