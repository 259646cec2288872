// Package optimistic applies list mutations locally before the server
// confirms them and rolls them back when it does not.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	// ErrBusy is returned when the item already has a mutation in flight.
	ErrBusy = errors.New("optimistic: operation in progress, try again")
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("optimistic: item not found")
)

// Kind tells Resolve how to roll a mutation back.
type Kind int

const (
	KindUpdate Kind = iota
	KindCreate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindDelete:
		return "delete"
	default:
		return "update"
	}
}

// Handle identifies one accepted mutation.
type Handle[K comparable] struct {
	ID   K
	Kind Kind
	seq  uint64
}

type pending[K comparable, T any] struct {
	seq      uint64
	kind     Kind
	previous T
	index    int
}

// Controller holds one screen's list and its in-flight mutations.
// It is safe for concurrent use.
type Controller[K comparable, T any] struct {
	key func(T) K

	mu      sync.Mutex
	items   []T
	pending map[K]pending[K, T]
	seq     uint64
	temp    int
	lastErr error
	closed  bool
}

// New returns a controller over items, identified by key.
func New[K comparable, T any](key func(T) K, items []T) *Controller[K, T] {
	c := &Controller[K, T]{key: key, pending: make(map[K]pending[K, T])}
	c.items = dedupe(key, items)
	return c
}

// Begin replaces the item with id by next. next must carry the same id.
func (c *Controller[K, T]) Begin(id K, next T) (Handle[K], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.pending[id]; busy {
		return Handle[K]{}, ErrBusy
	}
	if c.key(next) != id {
		return Handle[K]{}, fmt.Errorf("optimistic.Begin: next item has a different id")
	}
	i := c.indexOf(id)
	if i < 0 {
		return Handle[K]{}, ErrNotFound
	}

	h := c.track(id, KindUpdate, c.items[i], i)
	c.items[i] = next
	return h, nil
}

// BeginCreate inserts item at the head of the list. Its id is usually a
// temporary one from TempID.
func (c *Controller[K, T]) BeginCreate(item T) (Handle[K], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.key(item)
	if _, busy := c.pending[id]; busy {
		return Handle[K]{}, ErrBusy
	}
	if c.indexOf(id) >= 0 {
		return Handle[K]{}, ErrBusy
	}

	var zero T
	h := c.track(id, KindCreate, zero, 0)
	c.items = append([]T{item}, c.items...)
	return h, nil
}

// BeginDelete removes the item with id from the list.
func (c *Controller[K, T]) BeginDelete(id K) (Handle[K], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.pending[id]; busy {
		return Handle[K]{}, ErrBusy
	}
	i := c.indexOf(id)
	if i < 0 {
		return Handle[K]{}, ErrNotFound
	}

	h := c.track(id, KindDelete, c.items[i], i)
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return h, nil
}

// Resolve settles a mutation. On success the optimistic state stays, or is
// replaced by merged[0] when the server returned an authoritative record
// (which may carry a new id for a created item). On failure the mutation is
// rolled back and err becomes the last error. Resolving a handle twice is a
// no-op. It reports whether the handle was still pending.
func (c *Controller[K, T]) Resolve(h Handle[K], err error, merged ...T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[h.ID]
	if !ok || p.seq != h.seq {
		return false
	}
	delete(c.pending, h.ID)

	if c.closed {
		return true
	}

	if err == nil {
		if len(merged) > 0 && h.Kind != KindDelete {
			c.merge(h.ID, merged[0])
		}
		return true
	}

	c.lastErr = err
	switch h.Kind {
	case KindUpdate:
		if i := c.indexOf(h.ID); i >= 0 {
			c.items[i] = p.previous
		} else {
			c.insert(clamp(p.index, len(c.items)), p.previous)
		}
	case KindCreate:
		if i := c.indexOf(h.ID); i >= 0 {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
		}
	case KindDelete:
		if c.indexOf(h.ID) < 0 {
			c.insert(clamp(p.index, len(c.items)), p.previous)
		}
	}
	return true
}

// Do runs call for an accepted mutation and resolves it with call's result.
// If call panics the mutation is rolled back before the panic continues.
func (c *Controller[K, T]) Do(ctx context.Context, h Handle[K], call func(ctx context.Context) (*T, error)) (err error) {
	resolved := false
	defer func() {
		if resolved {
			return
		}
		if r := recover(); r != nil {
			c.Resolve(h, fmt.Errorf("optimistic: mutation panicked: %v", r))
			panic(r)
		}
	}()

	merged, err := call(ctx)
	if err == nil && merged != nil {
		c.Resolve(h, nil, *merged)
	} else {
		c.Resolve(h, err)
	}
	resolved = true
	return err
}

// Items returns a copy of the visible list.
func (c *Controller[K, T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of visible items.
func (c *Controller[K, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the visible item with id.
func (c *Controller[K, T]) Get(id K) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Pending reports whether id has a mutation in flight.
func (c *Controller[K, T]) Pending(id K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// InFlight returns the number of mutations in flight.
func (c *Controller[K, T]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Replace loads a fresh list from the server. It is refused while
// mutations are in flight so a reload cannot race a rollback.
func (c *Controller[K, T]) Replace(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) > 0 {
		return ErrBusy
	}
	c.items = dedupe(c.key, items)
	return nil
}

// LastError returns and clears the error of the most recent failed mutation.
func (c *Controller[K, T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.lastErr
	c.lastErr = nil
	return err
}

// Close detaches the controller from its view. Pending mutations still
// settle, but the list is no longer written.
func (c *Controller[K, T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// TempID returns the next temporary id suffix ("1", "2", ...) for a
// locally created item. Callers prefix it, e.g. "local-" + TempID().
func (c *Controller[K, T]) TempID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temp++
	return strconv.Itoa(c.temp)
}

// track records a pending mutation. Caller holds c.mu.
func (c *Controller[K, T]) track(id K, kind Kind, previous T, index int) Handle[K] {
	c.seq++
	c.pending[id] = pending[K, T]{seq: c.seq, kind: kind, previous: previous, index: index}
	return Handle[K]{ID: id, Kind: kind, seq: c.seq}
}

// merge replaces the item with id by the server's record, dropping any other
// entry that already carries the record's id. A mutation still pending on
// that entry is forgotten, so its later Resolve cannot roll the record
// back. Caller holds c.mu.
func (c *Controller[K, T]) merge(id K, item T) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	newID := c.key(item)
	if newID != id {
		delete(c.pending, newID)
		if j := c.indexOf(newID); j >= 0 {
			c.items = append(c.items[:j:j], c.items[j+1:]...)
			if j < i {
				i--
			}
		}
	}
	c.items[i] = item
}

// indexOf returns the position of id or -1. Caller holds c.mu.
func (c *Controller[K, T]) indexOf(id K) int {
	for i, it := range c.items {
		if c.key(it) == id {
			return i
		}
	}
	return -1
}

// insert places item at i. Caller holds c.mu.
func (c *Controller[K, T]) insert(i int, item T) {
	c.items = append(c.items, item)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = item
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// dedupe keeps the first item per id.
func dedupe[K comparable, T any](key func(T) K, items []T) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
