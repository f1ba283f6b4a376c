// Package chat implements the dashboard's question-answering panel: a thin
// session layer in front of a web search provider. Sessions live only in
// process memory.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jotthecode/city-pulse/internal/providers"
)

// Searcher is the search backend the chat panel answers from.
type Searcher interface {
	Search(ctx context.Context, query string) ([]providers.SearchResult, error)
}

// Message is one turn of a chat session.
type Message struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Manager holds chat sessions and answers questions via the search backend.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string][]Message
	searcher   Searcher
	maxHistory int
	now        func() time.Time
}

// NewManager creates a Manager. maxHistory bounds the retained messages per
// session (0 means a default of 50).
func NewManager(searcher Searcher, maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Manager{
		sessions:   make(map[string][]Message),
		searcher:   searcher,
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// Ask records the user message, answers it from the search backend, and
// returns the session ID (freshly minted when empty), the reply, and the
// session history.
func (m *Manager) Ask(ctx context.Context, sessionID, question string) (string, string, []Message, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply := m.answer(ctx, question)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	history := append(m.sessions[sessionID],
		Message{Role: "user", Content: question, At: now},
		Message{Role: "assistant", Content: reply, At: now},
	)
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[sessionID] = history

	out := make([]Message, len(history))
	copy(out, history)
	return sessionID, reply, out, nil
}

// History returns a copy of the session's messages.
func (m *Manager) History(sessionID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.sessions[sessionID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

func (m *Manager) answer(ctx context.Context, question string) string {
	results, err := m.searcher.Search(ctx, question)
	if err != nil {
		return fmt.Sprintf("Search failed: %v", err)
	}
	if len(results) == 0 {
		return "No relevant results found."
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("**[%s](%s)**\n%s", r.Title, r.Link, r.Snippet))
	}
	return strings.Join(parts, "\n\n")
}
