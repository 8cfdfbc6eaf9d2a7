package esdb

// streamState centralizes the "read position on open, advance after a
// successful commit" rule in one place, grounded on the original source's
// stream/state.rs (State{ position }, current()/increment()) rather than
// inlining a bare counter field on Stream.
type streamState struct {
	position uint64
}

func newStreamState(position uint64) streamState {
	return streamState{position: position}
}

func (s *streamState) current() uint64 {
	return s.position
}

func (s *streamState) advance(n uint64) {
	s.position += n
}
