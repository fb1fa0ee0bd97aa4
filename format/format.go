// Package format writes concrete syntax trees in the output formats of the
// combo command.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/combo/ebnf/parse"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(node *parse.Node) error
}

// NewEncoder returns the encoder for the named format: json, tree or line.
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "json":
		return NewJSONEncoder(w), nil
	case "tree":
		return NewTreeEncoder(w), nil
	case "line":
		return NewLineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}

// Names lists the supported formats.
func Names() []string {
	return []string{"json", "tree", "line"}
}

func encode(w io.Writer, e encoding.TextMarshaler) error {
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
