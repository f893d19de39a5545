package app

import (
	"log/slog"

	"xref/internal/engine/lexer"
	"xref/internal/shared/observability"

	"github.com/maypok86/otter"
)

// contentCache keeps the token streams of pass 1 for pass 2. A miss only
// means the file is read and tokenized again.
type contentCache struct {
	cache otter.Cache[string, []lexer.Token]
}

func newContentCache(capacity int) (*contentCache, error) {
	cache, err := otter.MustBuilder[string, []lexer.Token](capacity).
		Cost(func(_ string, tokens []lexer.Token) uint32 {
			return 1
		}).
		DeletionListener(func(key string, _ []lexer.Token, cause otter.DeletionCause) {
			if cause == otter.Size {
				observability.ContentCacheEvictionsTotal.Inc()
				slog.Debug("evicted tokenized source", "path", key)
			}
		}).
		Build()
	if err != nil {
		return nil, err
	}
	return &contentCache{cache: cache}, nil
}

func (c *contentCache) get(path string) ([]lexer.Token, bool) {
	return c.cache.Get(path)
}

func (c *contentCache) put(path string, tokens []lexer.Token) {
	c.cache.Set(path, tokens)
}

// purge drops every entry; used when the heap grows past its limit.
func (c *contentCache) purge() {
	c.cache.Clear()
}

func (c *contentCache) size() int {
	return c.cache.Size()
}

func (c *contentCache) close() {
	c.cache.Close()
}
