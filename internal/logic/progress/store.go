package progress

import (
	"context"
	"sync"
	"time"
)

// StatusStore 保存操作状态，Claim 需保证同一 id 只有一个调用方成功
type StatusStore interface {
	GetStatus(ctx context.Context, opID string) (OpStatus, error)
	SetStatus(ctx context.Context, opID string, status OpStatus, ttl time.Duration) error
	Claim(ctx context.Context, opID string, ttl time.Duration) (bool, error)
}

type memEntry struct {
	status   OpStatus
	expireAt time.Time
}

// MemStatusStore 未配置 Redis 时使用，仅在进程内有效
type MemStatusStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemStatusStore() *MemStatusStore {
	return &MemStatusStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (m *MemStatusStore) get(opID string) OpStatus {
	e, ok := m.entries[opID]
	if !ok {
		return OpUnknown
	}
	if !e.expireAt.IsZero() && !m.now().Before(e.expireAt) {
		delete(m.entries, opID)
		return OpUnknown
	}
	return e.status
}

func (m *MemStatusStore) set(opID string, status OpStatus, ttl time.Duration) {
	e := memEntry{status: status}
	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}
	m.entries[opID] = e
}

func (m *MemStatusStore) GetStatus(_ context.Context, opID string) (OpStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(opID), nil
}

func (m *MemStatusStore) SetStatus(_ context.Context, opID string, status OpStatus, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(opID, status, ttl)
	return nil
}

func (m *MemStatusStore) Claim(_ context.Context, opID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.get(opID) != OpUnknown {
		return false, nil
	}
	m.set(opID, OpPending, ttl)
	return true, nil
}
