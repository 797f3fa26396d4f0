package llm

import (
	"context"
	"strings"
	"sync"
)

// Session is a stateful advisor conversation: prior turns are replayed as
// context on every completion until Clear is called. Useful when the advisor
// benefits from seeing its earlier plans and their outcomes.
type Session struct {
	client Client

	mu    sync.Mutex
	turns []turn
	limit int
}

type turn struct {
	prompt     string
	completion string
}

// NewSession wraps a client with turn history. limit bounds retained turns;
// zero means 8.
func NewSession(client Client, limit int) *Session {
	if limit <= 0 {
		limit = 8
	}
	return &Session{client: client, limit: limit}
}

// Complete sends the prompt prefixed by the retained turn history and
// records the exchange.
func (s *Session) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	var b strings.Builder
	for _, t := range s.turns {
		b.WriteString("Previous request:\n")
		b.WriteString(t.prompt)
		b.WriteString("\nPrevious response:\n")
		b.WriteString(t.completion)
		b.WriteString("\n\n")
	}
	b.WriteString(prompt)
	full := b.String()
	s.mu.Unlock()

	completion, err := s.client.Complete(ctx, full)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.turns = append(s.turns, turn{prompt: prompt, completion: completion})
	if len(s.turns) > s.limit {
		s.turns = s.turns[len(s.turns)-s.limit:]
	}
	s.mu.Unlock()
	return completion, nil
}

// Clear drops the retained history.
func (s *Session) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
}

// Turns returns how many turns are retained.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
