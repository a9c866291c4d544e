package ai

import (
	"context"
	"fmt"
	"sync"
)

// StubMessage — запись об одном вызове SendMessage заглушки.
type StubMessage struct {
	ConversationID string
	Text           string
	ImageURLs      []string
}

// StubDialogueClient заглушка, которая не делает реальных запросов.
// Первый ответ в диалоге: описание картинки, дальше эхо вопроса.
type StubDialogueClient struct {
	// Description — ответ на первое сообщение диалога.
	Description string
	// Err, если задан, возвращается из SendMessage.
	Err error

	mu       sync.Mutex
	next     int
	created  []string
	messages []StubMessage
	seen     map[string]int
}

func NewStubDialogueClient() *StubDialogueClient {
	return &StubDialogueClient{
		Description: "The image shows a wheat field with healthy green plants on loamy soil. A few leaves have yellow-orange rust pustules, an early sign of stripe rust. No irrigation issues are visible. Regular scouting and a timely fungicide spray are advised to keep the infection from spreading across the field.",
		seen:        make(map[string]int),
	}
}

func (c *StubDialogueClient) CreateConversation(_ context.Context, instructions string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	id := fmt.Sprintf("stub-%d", c.next)
	c.created = append(c.created, instructions)
	return id, nil
}

func (c *StubDialogueClient) SendMessage(_ context.Context, conversationID string, text string, imageURLs []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, StubMessage{ConversationID: conversationID, Text: text, ImageURLs: imageURLs})
	if c.Err != nil {
		return "", c.Err
	}
	c.seen[conversationID]++
	if c.seen[conversationID] == 1 {
		return c.Description, nil
	}
	return "Answer about the same image: " + text, nil
}

// Messages возвращает копию всех отправленных сообщений.
func (c *StubDialogueClient) Messages() []StubMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StubMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Conversations — сколько диалогов было создано.
func (c *StubDialogueClient) Conversations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.created)
}
