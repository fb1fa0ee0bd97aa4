package combinator

import (
	"strconv"
	"strings"

	"github.com/dhamidi/combo/lex"
)

// Key is the pattern a token parser matches. With neither wildcard set it
// matches by type and value, as lex.Token.Equal does.
type Key struct {
	Type     string
	Value    string
	AnyType  bool
	AnyValue bool
}

// Matches reports whether t matches the pattern.
func (k Key) Matches(t lex.Token) bool {
	return (k.AnyType || k.Type == t.Type) && (k.AnyValue || k.Value == t.Value)
}

// Overlaps reports whether some token matches both k and other.
func (k Key) Overlaps(other Key) bool {
	types := k.AnyType || other.AnyType || k.Type == other.Type
	values := k.AnyValue || other.AnyValue || k.Value == other.Value
	return types && values
}

func (k Key) String() string {
	switch {
	case k.AnyType && k.AnyValue:
		return "any token"
	case k.AnyValue:
		return k.Type
	case k.AnyType || k.Type == "":
		return strconv.Quote(k.Value)
	}
	return k.Type + " " + strconv.Quote(k.Value)
}

// FirstSet is the set of token patterns that can begin a successful parse of
// a node, plus whether the node can succeed without consuming input.
type FirstSet struct {
	Keys     []Key
	Nullable bool

	// end is set when the node can start with an Eof assertion.
	end bool
}

// Contains reports whether k is one of the keys of the set.
func (f FirstSet) Contains(k Key) bool {
	for _, have := range f.Keys {
		if have == k {
			return true
		}
	}
	return false
}

// Overlap returns the keys of f that overlap with some key of other.
func (f FirstSet) Overlap(other FirstSet) []Key {
	var shared []Key
	for _, a := range f.Keys {
		for _, b := range other.Keys {
			if a.Overlaps(b) {
				shared = append(shared, a)
				break
			}
		}
	}
	return shared
}

// canStart reports whether a parse with this FIRST set could succeed at
// position pos of tokens.
func (f FirstSet) canStart(tokens []lex.Token, pos int) bool {
	if f.Nullable || f.end {
		return true
	}
	if pos >= len(tokens) {
		return false
	}
	for _, k := range f.Keys {
		if k.Matches(tokens[pos]) {
			return true
		}
	}
	return false
}

func (f FirstSet) String() string {
	parts := make([]string, 0, len(f.Keys)+1)
	for _, k := range f.Keys {
		parts = append(parts, k.String())
	}
	if f.Nullable {
		parts = append(parts, "ε")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (f FirstSet) equal(other FirstSet) bool {
	if f.Nullable != other.Nullable || f.end != other.end || len(f.Keys) != len(other.Keys) {
		return false
	}
	for i := range f.Keys {
		if f.Keys[i] != other.Keys[i] {
			return false
		}
	}
	return true
}

// union adds the keys of other that f does not contain yet. Nullable is not
// merged; callers decide how nullability combines.
func (f FirstSet) union(other FirstSet) FirstSet {
	out := FirstSet{Keys: append([]Key(nil), f.Keys...), Nullable: f.Nullable, end: f.end || other.end}
	for _, k := range other.Keys {
		if !out.Contains(k) {
			out.Keys = append(out.Keys, k)
		}
	}
	return out
}
