package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryClient é um Client em processo, usado com STORAGE_DRIVER=memory e nos testes.
type MemoryClient struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryClient cria um cache vazio.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{entries: make(map[string]memoryEntry), now: time.Now}
}

// lookup deve ser chamado com mu travado.
func (c *MemoryClient) lookup(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *MemoryClient) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryClient) GetInt(ctx context.Context, key string) (int, error) {
	s, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (c *MemoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: s}
	if expiration > 0 {
		e.expiresAt = c.now().Add(expiration)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryClient) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, _ := c.lookup(key)
	n := int64(0)
	if e.value != "" {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("valor da chave %s não é inteiro: %w", key, err)
		}
		n = parsed
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e
	return n, nil
}

func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
