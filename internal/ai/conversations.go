package ai

import (
	"AgroAssistant/internal/adapter/localconversation"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// conversations — потокобезопасный реестр локальных диалогов, общий для реализаций DialogueClient.
type conversations struct {
	mu         sync.Mutex
	talks      map[string]*localconversation.LocalConversation
	maxRecords int
}

func newConversations(maxRecords int) *conversations {
	return &conversations{talks: make(map[string]*localconversation.LocalConversation), maxRecords: maxRecords}
}

func (c *conversations) create(instructions string) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.talks[id] = localconversation.New(id, instructions, c.maxRecords)
	c.mu.Unlock()
	return id
}

// snapshot возвращает инструкции и копию истории диалога.
func (c *conversations) snapshot(id string) (string, []localconversation.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lc, ok := c.talks[id]
	if !ok {
		return "", nil, fmt.Errorf("unknown conversation: %s", id)
	}
	return lc.Instructions, lc.History(), nil
}

func (c *conversations) record(id string, user, assistant localconversation.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lc, ok := c.talks[id]; ok {
		lc.AppendExchange(user, assistant)
	}
}

// Forget удаляет диалог (например, когда сессия заменена новой загрузкой).
func (c *conversations) Forget(id string) {
	c.mu.Lock()
	delete(c.talks, id)
	c.mu.Unlock()
}
