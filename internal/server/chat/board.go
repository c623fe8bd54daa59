// Package chat keeps the dashboard message board. Messages live in process
// memory only and evaporate on restart; the board just caps its backlog so
// an abandoned instance cannot grow without bound.
package chat

import "sync"

// Message is a single chat entry. Pfp carries the sender's avatar as a
// base64 string, mirroring how avatars are stored on account records.
type Message struct {
	Username string `json:"username"`
	Pfp      string `json:"pfp"`
	Text     string `json:"text"`
}

// Board is a bounded, append-only in-memory message log.
type Board struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewBoard creates a board keeping at most limit messages; older ones are
// discarded first. A non-positive limit means unbounded.
func NewBoard(limit int) *Board {
	return &Board{limit: limit}
}

// Post appends a message, evicting the oldest one when over the cap.
func (b *Board) Post(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, msg)
	if b.limit > 0 && len(b.messages) > b.limit {
		b.messages = b.messages[len(b.messages)-b.limit:]
	}
}

// Messages returns a copy of the backlog, oldest first.
func (b *Board) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}
