package rag

// Session holds the ordered conversation history of one user session.
// It is passed explicitly to each operation; there is no process-wide
// conversation state. A Session is used by a single caller at a time.
type Session struct {
	turns []Turn
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{}
}

// Append records one completed question/answer pair.
func (s *Session) Append(question, answer string) {
	s.turns = append(s.turns, Turn{Question: question, Answer: answer})
}

// Recent returns a copy of the last n turns in original order.
// n <= 0 or n beyond the history length returns the whole history.
func (s *Session) Recent(n int) []Turn {
	turns := s.turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len reports the number of recorded turns.
func (s *Session) Len() int {
	return len(s.turns)
}

// Reset clears the history.
func (s *Session) Reset() {
	s.turns = nil
}
