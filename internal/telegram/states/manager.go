package states

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type State string

const (
	StateNone State = ""
	// StateAwaitingSupport: следующее текстовое сообщение уходит в поддержку
	StateAwaitingSupport State = "awaiting_support"
)

const DefaultTTL = 15 * time.Minute

// Manager хранит состояния диалогов в памяти. Брошенное состояние истекает
// само, чтобы случайное сообщение через час не ушло в поддержку.
type Manager struct {
	mu     sync.Mutex
	states *cache.Cache
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: cache.New(ttl, 2*ttl),
	}
}

// GetState получает текущее состояние пользователя
func (m *Manager) GetState(chatID int64) State {
	v, ok := m.states.Get(key(chatID))
	if !ok {
		return StateNone
	}
	return v.(State)
}

// SetState устанавливает состояние пользователя
func (m *Manager) SetState(chatID int64, state State) {
	m.states.SetDefault(key(chatID), state)
}

// Clear очищает состояние пользователя
func (m *Manager) Clear(chatID int64) {
	m.states.Delete(key(chatID))
}

// Take returns the state and clears it in one step.
func (m *Manager) Take(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.GetState(chatID)
	if state != StateNone {
		m.Clear(chatID)
	}
	return state
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
