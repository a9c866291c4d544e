package state

import (
	"AgroAssistant/internal/service/assistant"
	"AgroAssistant/internal/service/metrics"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession — картинку ещё ни разу не загружали (или сессию выселили по простою).
var ErrNoSession = errors.New("no active session")

// Factory создаёт пустую сессию с заданным id.
type Factory func(id string) *assistant.Session

// Manager — потокобезопасный слот для единственной активной сессии.
type Manager struct {
	newSession Factory

	mu     sync.RWMutex
	active *assistant.Session
}

func New(factory Factory) *Manager {
	return &Manager{newSession: factory}
}

// StartNewSession создаёт сессию, выставляет язык и атомарно заменяет ею предыдущую.
// Старая сессия закрывается: вопросы к ней получат assistant.ErrSessionReplaced.
// ID новой сессии клиент передаёт в последующих вопросах.
func (m *Manager) StartNewSession(localeHint string) *assistant.Session {
	s := m.newSession(uuid.NewString())
	s.SetLanguage(localeHint)

	m.mu.Lock()
	prev := m.active
	m.active = s
	m.mu.Unlock()

	if prev != nil {
		prev.Retire()
	}
	metrics.SessionsStartedTotal.Inc()
	metrics.SessionActive.Set(1)
	return s
}

// Active возвращает текущую сессию, если она есть.
func (m *Manager) Active() (*assistant.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, m.active != nil
}

// Get возвращает активную сессию. Пустой id означает «текущая».
func (m *Manager) Get(id string) (*assistant.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		if id != "" {
			return nil, assistant.ErrSessionReplaced
		}
		return nil, ErrNoSession
	}
	if id != "" && id != m.active.ID() {
		return nil, assistant.ErrSessionReplaced
	}
	return m.active, nil
}

// EvictIdle закрывает активную сессию, если к ней не обращались дольше ttl.
func (m *Manager) EvictIdle(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	m.mu.Lock()
	s := m.active
	if s == nil || time.Since(s.LastUsed()) < ttl {
		m.mu.Unlock()
		return false
	}
	m.active = nil
	m.mu.Unlock()

	s.Retire()
	metrics.SessionActive.Set(0)
	return true
}
