package cache

import (
	"sync"

	"freepaste/pkg/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// LRU is a bounded read-through cache for pastes. Pastes never expire, so
// there is no TTL; edits must call Delete to keep reads coherent.
type LRU struct {
	c  *lru.Cache[string, *domain.Paste]
	mu sync.Mutex
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > 100000 {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, *domain.Paste](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(id string) *domain.Paste {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.c.Get(id)
	if !ok {
		return nil
	}
	return p
}

func (l *LRU) Set(p *domain.Paste) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Add(p.ID, p)
}

func (l *LRU) Delete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Remove(id)
}
