package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/voicebot/internal/llm"
)

// Conversation is one dialogue session. Its first message is always the
// system prompt it was created with.
type Conversation struct {
	ID       string
	Started  time.Time
	messages []llm.Message
}

// NewConversation starts a session with the given system prompt.
func NewConversation(systemPrompt string, now time.Time) *Conversation {
	return &Conversation{
		ID:       uuid.NewString(),
		Started:  now,
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}
}

// Append adds a message.
func (c *Conversation) Append(m llm.Message) {
	c.messages = append(c.messages, m)
}

// Messages returns a copy of the messages.
func (c *Conversation) Messages() []llm.Message {
	return append([]llm.Message(nil), c.messages...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Count returns the number of messages with role.
func (c *Conversation) Count(role string) int {
	n := 0
	for _, m := range c.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
