package app

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const routeSeparator = "\x00"

// PageCache memoizes rendered listings per route. Entries expire after ttl
// (never when ttl is zero), the least recently used are evicted past size,
// and writes invalidate the routes they affect.
type PageCache struct {
	entries *expirable.LRU[string, any]
}

func NewPageCache(size int, ttl time.Duration) *PageCache {
	if size <= 0 {
		size = 512
	}
	return &PageCache{entries: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (p *PageCache) Get(route, key string) (any, bool) {
	return p.entries.Get(route + routeSeparator + key)
}

func (p *PageCache) Set(route, key string, value any) {
	p.entries.Add(route+routeSeparator+key, value)
}

func (p *PageCache) Invalidate(routes ...string) {
	for _, k := range p.entries.Keys() {
		for _, route := range routes {
			if strings.HasPrefix(k, route+routeSeparator) {
				p.entries.Remove(k)
				break
			}
		}
	}
}

func (p *PageCache) Len() int { return p.entries.Len() }
