package sqliteconn

import "sync"

// GeneratedKeyHolder receives the row identifiers produced by Insert.
type GeneratedKeyHolder interface {
	AddKey(key any) error
}

// KeyHolder is a GeneratedKeyHolder that keeps every key it receives in
// insertion order.
type KeyHolder struct {
	mu   sync.Mutex
	keys []any
}

// AddKey appends key. It never fails.
func (h *KeyHolder) AddKey(key any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
	return nil
}

// Keys returns a copy of the collected keys.
func (h *KeyHolder) Keys() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.keys...)
}

// Last returns the most recent key, or nil if none was added.
func (h *KeyHolder) Last() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.keys) == 0 {
		return nil
	}
	return h.keys[len(h.keys)-1]
}
