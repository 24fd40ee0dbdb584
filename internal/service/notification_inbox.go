package service

import (
	"context"
	"encoding/json"
	"sync"
)

const defaultInboxSize = 100

// NotificationInbox stores capped per-user notification lists.
type NotificationInbox interface {
	Push(ctx context.Context, n Notification) error
	List(ctx context.Context, userID string, limit int) ([]Notification, error)
}

// ListStore is a capped list keyed by string. persistence.Redis satisfies it.
type ListStore interface {
	PushCapped(ctx context.Context, key string, value []byte, max int64) error
	Range(ctx context.Context, key string, limit int64) ([]string, error)
}

// RedisInbox keeps notifications as JSON entries in one list per user.
type RedisInbox struct {
	store ListStore
	size  int64
}

// NewRedisInbox builds an inbox holding at most size entries per user.
func NewRedisInbox(store ListStore, size int) *RedisInbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &RedisInbox{store: store, size: int64(size)}
}

func inboxKey(userID string) string {
	return "notifications:" + userID
}

// Push prepends n to the user's list.
func (r *RedisInbox) Push(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.store.PushCapped(ctx, inboxKey(n.UserID), payload, r.size)
}

// List decodes up to limit entries, newest first.
func (r *RedisInbox) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 || int64(limit) > r.size {
		limit = int(r.size)
	}
	raw, err := r.store.Range(ctx, inboxKey(userID), int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(raw))
	for _, entry := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(entry), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// MemoryInbox is the in-process inbox used without Redis.
type MemoryInbox struct {
	mu    sync.RWMutex
	size  int
	items map[string][]Notification
}

// NewMemoryInbox builds an inbox holding at most size entries per user.
func NewMemoryInbox(size int) *MemoryInbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &MemoryInbox{size: size, items: make(map[string][]Notification)}
}

// Push prepends n to the user's list.
func (m *MemoryInbox) Push(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]Notification{n}, m.items[n.UserID]...)
	if len(list) > m.size {
		list = list[:m.size]
	}
	m.items[n.UserID] = list
	return nil
}

// List returns up to limit entries, newest first.
func (m *MemoryInbox) List(_ context.Context, userID string, limit int) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.items[userID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Notification, limit)
	copy(out, list[:limit])
	return out, nil
}
