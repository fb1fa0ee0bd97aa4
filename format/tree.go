package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/combo/ebnf/parse"
)

// TreeEncoder writes one node per line, indented by depth:
//
//	Expr 1:1-1:5
//	  Term 1:1-1:1
//	    number "1" 1:1-1:1
type TreeEncoder struct {
	w    io.Writer
	node *parse.Node
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(node *parse.Node) error {
	e.node = node
	return encode(e.w, e)
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.node != nil {
		writeTree(&sb, e.node, 0)
	}
	return []byte(sb.String()), nil
}

func writeTree(sb *strings.Builder, n *parse.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind)
	if n.IsTerminal() {
		sb.WriteString(" " + strconv.Quote(n.Text()))
	}
	if span := spanString(n.Span); span != "" {
		sb.WriteString(" " + span)
	}
	sb.WriteByte('\n')
	for _, child := range n.Children {
		writeTree(sb, child, depth+1)
	}
}

func spanString(s parse.Span) string {
	if !s.Start.IsValid() {
		return ""
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}
