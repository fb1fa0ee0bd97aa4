package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/combo/ebnf/parse"
)

type JSONEncoder struct {
	w    io.Writer
	node *parse.Node
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(node *parse.Node) error {
	e.node = node
	return encode(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := json.MarshalIndent(e.node, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
