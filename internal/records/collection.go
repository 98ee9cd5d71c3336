package records

import (
	"slices"

	"github.com/google/uuid"
)

// Keyed is implemented by every record kind.
type Keyed interface {
	Key() string
}

// Collection is an ordered list of one record kind mirrored to a single
// storage key. All collections of a Store share the store's lock.
type Collection[T Keyed] struct {
	s        *Store
	key      string
	idPrefix string
	items    []T
	setID    func(*T, string)
}

func newCollection[T Keyed](s *Store, key, idPrefix string, setID func(*T, string)) *Collection[T] {
	return &Collection[T]{s: s, key: key, idPrefix: idPrefix, setID: setID}
}

// List returns a copy of the records in insertion order.
func (c *Collection[T]) List() []T {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return len(c.items)
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Add appends v, assigning an id when it has none, and returns the stored record.
func (c *Collection[T]) Add(v T) T {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if v.Key() == "" {
		c.setID(&v, c.idPrefix+uuid.NewString())
	}
	c.items = append(c.items, v)
	c.s.persist(c.key, c.items)
	return v
}

// Update replaces the record with the same id. It reports false, and changes
// nothing, when there is no such record.
func (c *Collection[T]) Update(v T) bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	i := c.index(v.Key())
	if i < 0 {
		return false
	}
	c.items[i] = v
	c.s.persist(c.key, c.items)
	return true
}

// Delete removes the record with id. Deleting a missing id is a no-op.
func (c *Collection[T]) Delete(id string) bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.s.persist(c.key, c.items)
	return true
}

// index must be called with the lock held.
func (c *Collection[T]) index(id string) int {
	return slices.IndexFunc(c.items, func(v T) bool { return v.Key() == id })
}

// load rehydrates the collection, falling back to fixtures when the key is
// missing or unreadable.
func (c *Collection[T]) load(fixtures []T) error {
	var items []T
	found, err := c.s.load(c.key, &items)
	if err != nil {
		return err
	}
	if !found {
		items = fixtures
	}
	c.items = items
	return nil
}
