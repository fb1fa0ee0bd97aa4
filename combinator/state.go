package combinator

import "fmt"

// State is the position reached in the token sequence. Max is the farthest
// position any branch has reached so far; it never decreases during a parse,
// even when a failed alternative rewinds Pos.
type State struct {
	Pos int
	Max int
}

func (s State) String() string {
	return fmt.Sprintf("State(%d, %d)", s.Pos, s.Max)
}

// advance returns the state after consuming one token.
func (s State) advance() State {
	pos := s.Pos + 1
	return State{Pos: pos, Max: max(pos, s.Max)}
}

// reach records that position pos was attempted.
func (s State) reach(pos int) State {
	return State{Pos: s.Pos, Max: max(pos, s.Max)}
}

// rewind returns to pos keeping the farthest of both Max values.
func (s State) rewind(pos, farthest int) State {
	return State{Pos: pos, Max: max(s.Max, farthest)}
}
