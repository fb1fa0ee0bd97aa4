package combinator

// Tuple is the result of a Seq with more than one visible value.
//
// A Tuple produced by a child of a Seq is spliced into the parent's result,
// so Seq(Seq(p, q), r) and Seq(p, Seq(q, r)) both yield Tuple{p, q, r}.
// Map a sub-sequence to another type to keep it nested.
type Tuple []any

// Ignored wraps a result that Seq leaves out of its Tuple. Skip produces it;
// a Seq whose children are all ignored returns an Ignored holding the last
// ignored value.
type Ignored struct {
	Value any
}

// joiner accumulates the results of the children of a Seq.
type joiner struct {
	values  []any
	ignored Ignored
}

func (j *joiner) add(v any) {
	switch v := v.(type) {
	case Ignored:
		j.ignored = v
	case Tuple:
		j.values = append(j.values, v...)
	default:
		j.values = append(j.values, v)
	}
}

func (j *joiner) result() any {
	switch len(j.values) {
	case 0:
		return j.ignored
	case 1:
		return j.values[0]
	}
	return Tuple(j.values)
}
