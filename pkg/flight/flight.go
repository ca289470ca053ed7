// Package flight caches the results of keyed work and coalesces
// concurrent requests for the same key into one call.
package flight

import (
	"sync"
	"time"
)

type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	finished map[K]entry[V]
	pending  map[K]*job[V]

	work func(K) (V, error)

	// ttl <= 0 keeps results forever.
	ttl time.Duration
	now func() time.Time
}

type entry[V any] struct {
	val      V
	deadline time.Time // zero => infinite
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		finished: make(map[K]entry[V]),
		pending:  make(map[K]*job[V]),
		work:     work,
		ttl:      time.Hour,
		now:      time.Now,
	}
}

// Expiry sets how long future results stay cached.
// d <= 0 keeps them until the next Force.
func (p *Cache[K, V]) Expiry(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ttl = d
}

// Get returns the cached value for k, joining an in-flight call or
// running the work on a miss. Errors are not cached.
func (p *Cache[K, V]) Get(k K) (V, error) {
	p.mu.Lock()
	if e, ok := p.finished[k]; ok {
		if e.deadline.IsZero() || p.now().Before(e.deadline) {
			p.mu.Unlock()
			return e.val, nil
		}
		delete(p.finished, k)
	}
	if j, ok := p.pending[k]; ok {
		p.mu.Unlock()
		<-j.done
		return j.val, j.err
	}
	j := &job[V]{done: make(chan struct{})}
	p.pending[k] = j
	p.mu.Unlock()

	return p.run(k, j)
}

// Force recomputes k even if a cached value exists. A call already in
// flight for k is waited on first.
func (p *Cache[K, V]) Force(k K) (V, error) {
	var j *job[V]
	for {
		p.mu.Lock()
		if existing, ok := p.pending[k]; ok {
			p.mu.Unlock()
			<-existing.done
			continue
		}
		j = &job[V]{done: make(chan struct{})}
		p.pending[k] = j
		p.mu.Unlock()
		break
	}
	return p.run(k, j)
}

// Len returns the number of cached values, expired ones included.
func (p *Cache[K, V]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.finished)
}

func (p *Cache[K, V]) run(k K, j *job[V]) (V, error) {
	j.val, j.err = p.work(k)

	p.mu.Lock()
	if j.err == nil {
		e := entry[V]{val: j.val}
		if p.ttl > 0 {
			e.deadline = p.now().Add(p.ttl)
		}
		p.finished[k] = e
	}
	delete(p.pending, k)
	close(j.done)
	p.mu.Unlock()

	return j.val, j.err
}
