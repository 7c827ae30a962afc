// Package querycache is a keyed registry of invalidatable queries. It is
// owned by whatever composes a page, so each composition has its own cache.
package querycache

import "sync"

// Query is a cached result that can be marked stale and observed.
type Query interface {
	Invalidate()
	OnChange(fn func()) (cancel func())
}

// Cache maps query keys to queries.
type Cache struct {
	mu      sync.Mutex
	queries map[string]Query
	subs    map[string][]*subscription
	nextID  int
}

type subscription struct {
	id     int
	fn     func()
	detach func()
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		queries: make(map[string]Query),
		subs:    make(map[string][]*subscription),
	}
}

// Register stores q under key, replacing any previous query. Existing
// subscribers of key move over to q.
func (c *Cache) Register(key string, q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queries[key] = q
	for _, s := range c.subs[key] {
		if s.detach != nil {
			s.detach()
		}
		s.detach = q.OnChange(s.fn)
	}
}

// Get returns the query registered under key.
func (c *Cache) Get(key string) (Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queries[key]
	return q, ok
}

// Lookup returns the query under key if it has type T.
func Lookup[T Query](c *Cache, key string) (T, bool) {
	q, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := q.(T)
	return t, ok
}

// Invalidate marks the query under key stale. It reports whether a query
// was registered.
func (c *Cache) Invalidate(key string) bool {
	q, ok := c.Get(key)
	if !ok {
		return false
	}
	q.Invalidate()
	return true
}

// Subscribe calls fn whenever the query under key changes. Subscribing
// before the key is registered is allowed. The returned function removes
// the subscription.
func (c *Cache) Subscribe(key string, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	s := &subscription{id: c.nextID, fn: fn}
	if q, ok := c.queries[key]; ok {
		s.detach = q.OnChange(fn)
	}
	c.subs[key] = append(c.subs[key], s)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		list := c.subs[key]
		for i, cur := range list {
			if cur.id != s.id {
				continue
			}
			if cur.detach != nil {
				cur.detach()
			}
			c.subs[key] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}
