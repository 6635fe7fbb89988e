// Package cache memoizes point evaluations behind a bounded LRU store.
package cache

import (
	"container/list"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jschueller/otwrapy/internal/vector"
)

// DefaultCapacity matches the original wrapper's cache-max-size, sized for
// exhaustive design-of-experiments workloads.
const DefaultCapacity = 1_000_000

type entry struct {
	key string
	x   vector.Point
	y   vector.Point
}

type inflight struct {
	done chan struct{}
	y    vector.Point
	err  error
}

// Cache is a fixed-capacity LRU keyed by exact input vectors. Concurrent
// requests for the same unseen key collapse into a single computation.
// Failed computations are never stored.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front = most recently used
	entries  map[string]*list.Element
	calls    map[string]*inflight

	hits   prometheus.Counter
	misses prometheus.Counter
	logger *zap.Logger
}

type Option func(*Cache)

// WithMetrics attaches a counter vec with a "result" label (hit/miss).
func WithMetrics(vec *prometheus.CounterVec) Option {
	return func(c *Cache) {
		c.hits = vec.WithLabelValues("hit")
		c.misses = vec.WithLabelValues("miss")
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func New(capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity: capacity,
		ll:       list.New(),
		entries:  make(map[string]*list.Element),
		calls:    make(map[string]*inflight),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached output for x, or invokes compute exactly
// once, stores its result and returns it. Concurrent callers presenting
// the same unseen x share one computation.
func (c *Cache) GetOrCompute(x vector.Point, compute func() (vector.Point, error)) (vector.Point, error) {
	key := x.Key()

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		y := el.Value.(*entry).y.Clone()
		c.mu.Unlock()
		c.incHit()
		return y, nil
	}
	if call, ok := c.calls[key]; ok {
		c.mu.Unlock()
		<-call.done
		if call.err != nil {
			return nil, call.err
		}
		c.incHit()
		return call.y.Clone(), nil
	}
	call := &inflight{done: make(chan struct{})}
	c.calls[key] = call
	c.mu.Unlock()
	c.incMiss()

	y, err := compute()
	call.y, call.err = y, err

	c.mu.Lock()
	delete(c.calls, key)
	if err == nil {
		c.insertLocked(key, x, y)
	}
	c.mu.Unlock()
	close(call.done)

	if err != nil {
		return nil, err
	}
	return y, nil
}

// Get looks x up without computing. A hit marks the entry recently used.
func (c *Cache) Get(x vector.Point) (vector.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[x.Key()]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).y.Clone(), true
}

// Put stores a known result for x, e.g. one produced by a batch dispatch.
func (c *Cache) Put(x, y vector.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := x.Key()
	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*entry).y = y.Clone()
		return
	}
	c.insertLocked(key, x, y)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) Contains(x vector.Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[x.Key()]
	return ok
}

func (c *Cache) insertLocked(key string, x, y vector.Point) {
	c.entries[key] = c.ll.PushFront(&entry{key: key, x: x.Clone(), y: y.Clone()})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		old := oldest.Value.(*entry)
		delete(c.entries, old.key)
		c.logger.Debug("evicted least recently used entry",
			zap.String("x", old.x.String()))
	}
}

func (c *Cache) incHit() {
	if c.hits != nil {
		c.hits.Inc()
	}
}

func (c *Cache) incMiss() {
	if c.misses != nil {
		c.misses.Inc()
	}
}
