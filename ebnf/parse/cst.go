// Package parse compiles EBNF grammars into combinator parsers that produce
// concrete syntax trees.
package parse

import (
	"github.com/dhamidi/combo/combinator"
	"github.com/dhamidi/combo/lex"
)

// Span represents a range in source code.
type Span struct {
	Start lex.Position
	End   lex.Position
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes have a non-nil Token; interior nodes have Children.
type Node struct {
	Kind     string     // Production name or token type
	Children []*Node    // Child nodes (nil for terminals)
	Token    *lex.Token // The token (non-nil for terminals)
	Span     Span       // Source span covering this node
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Text returns the source text of this node.
// For terminals, returns the token value.
// For non-terminals, returns empty string (caller should use span to extract text).
func (n *Node) Text() string {
	if n.Token != nil {
		return n.Token.Value
	}
	return ""
}

// Find returns the first descendant of n, in depth-first order, whose Kind
// is kind. It returns nil if there is none.
func (n *Node) Find(kind string) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
		if found := child.Find(kind); found != nil {
			return found
		}
	}
	return nil
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	if len(n.Children) == 1 {
		n.Span.Start = child.Span.Start
	}
	n.Span.End = child.Span.End
}

// NewTerminal creates a terminal node from a token.
func NewTerminal(tok lex.Token) *Node {
	kind := tok.Type
	if kind == "" {
		kind = tok.Value
	}
	return &Node{
		Kind:  kind,
		Token: &tok,
		Span:  Span{Start: tok.Start, End: tok.End},
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind string) *Node {
	return &Node{
		Kind:     kind,
		Children: make([]*Node, 0),
	}
}

// build turns the flattened result of a production body into a node.
func build(kind string, v any) *Node {
	n := NewNonTerminal(kind)
	collect(n, v)
	return n
}

func collect(n *Node, v any) {
	switch v := v.(type) {
	case *Node:
		n.AddChild(v)
	case lex.Token:
		n.AddChild(NewTerminal(v))
	case combinator.Tuple:
		for _, x := range v {
			collect(n, x)
		}
	case []any:
		for _, x := range v {
			collect(n, x)
		}
	}
}
