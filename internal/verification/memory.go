package verification

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type memoryCode struct {
	code    string
	expires time.Time
}

type MemoryBackend struct {
	mu    sync.Mutex
	codes map[string]memoryCode
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{codes: make(map[string]memoryCode)}
}

func (b *MemoryBackend) Replace(_ context.Context, email, code string, expires time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.codes[email] = memoryCode{code: code, expires: expires}
	return nil
}

func (b *MemoryBackend) Consume(_ context.Context, email, code string, now time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.codes[email]
	if !ok {
		return false, nil
	}
	if now.After(rec.expires) {
		delete(b.codes, email)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(rec.code), []byte(code)) != 1 {
		return false, nil
	}
	delete(b.codes, email)
	return true, nil
}

// Len reports how many records are held, expired ones included.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.codes)
}
