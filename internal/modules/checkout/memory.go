// README: In-memory session store for tests and single-process runs.
package checkout

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, chatID, tgUserID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey(chatID, tgUserID)]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(s.ChatID, s.TgUserID)] = copySession(s)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, chatID, tgUserID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(chatID, tgUserID))
	return nil
}

// copySession detaches stored state from the caller's session, matching the
// serialize-on-save behavior of the Redis store.
func copySession(s *Session) *Session {
	c := *s
	if s.MsgIDs != nil {
		c.MsgIDs = make(map[string]int, len(s.MsgIDs))
		for k, v := range s.MsgIDs {
			c.MsgIDs[k] = v
		}
	}
	return &c
}
