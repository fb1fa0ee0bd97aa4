package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/combo/ebnf/parse"
)

// LineEncoder writes one tab-separated line per token: its type, value,
// position and the path of productions leading to it.
type LineEncoder struct {
	w    io.Writer
	node *parse.Node
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(node *parse.Node) error {
	e.node = node
	return encode(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.node != nil {
		writeLines(&sb, e.node, nil)
	}
	return []byte(sb.String()), nil
}

func writeLines(sb *strings.Builder, n *parse.Node, path []string) {
	if n.IsTerminal() {
		tok := n.Token
		fmt.Fprintf(sb, "%s\t%s\t%d:%d\t%s\n",
			tok.Type,
			tok.Value,
			tok.Start.Line,
			tok.Start.Column,
			strings.Join(path, "/"),
		)
		return
	}
	path = append(path, n.Kind)
	for _, child := range n.Children {
		writeLines(sb, child, path)
	}
}
