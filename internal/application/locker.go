package application

import (
	"context"
	"sort"
	"sync"
)

// RoomLocker serializes writes that touch the schedule of a room. Lock blocks
// until every key is held or ctx is done; the returned func releases them.
type RoomLocker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// KeyedMutex is an in-process RoomLocker. Entries are dropped once no caller
// holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedMutexEntry
}

type keyedMutexEntry struct {
	// sem has capacity one; a buffered value means the key is held.
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedMutexEntry)}
}

// Lock acquires keys in sorted order so that two callers locking the same set
// cannot deadlock. Duplicate and empty keys are ignored.
func (m *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := lockOrder(keys)
	held := make([]string, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.unlock(held[i])
		}
	}

	for _, key := range ordered {
		if err := m.lock(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (m *KeyedMutex) lock(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[string]*keyedMutexEntry)
	}
	entry, ok := m.entries[key]
	if !ok {
		entry = &keyedMutexEntry{sem: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, entry)
		return ctx.Err()
	}
}

func (m *KeyedMutex) unlock(key string) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	<-entry.sem
	m.release(key, entry)
}

func (m *KeyedMutex) release(key string, entry *keyedMutexEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
}

// size returns the number of live entries.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func lockOrder(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)
	return ordered
}

// roomLockKey namespaces room ids for lockers shared with other resources.
func roomLockKey(roomID string) string {
	return "room:" + roomID
}
