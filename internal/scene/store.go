package scene

import "sort"

type remover interface {
	remove(id NodeID)
}

// Store maps nodes to one component type.
type Store[T any] struct {
	data map[NodeID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{data: make(map[NodeID]*T, 64)}
}

func (s *Store[T]) Set(id NodeID, c *T) { s.data[id] = c }

func (s *Store[T]) Get(id NodeID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Len() int { return len(s.data) }

func (s *Store[T]) remove(id NodeID) { delete(s.data, id) }

// ids returns the stored node IDs in ascending order so iteration, and
// therefore frame output, is deterministic.
func (s *Store[T]) ids() []NodeID {
	ids := make([]NodeID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each visits every node in the store in ID order.
func (s *Store[T]) Each(fn func(NodeID, *T)) {
	for _, id := range s.ids() {
		fn(id, s.data[id])
	}
}

// Each2 visits nodes present in both stores, walking the smaller one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(NodeID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.ids() {
			if b, ok := sb.data[id]; ok {
				fn(id, sa.data[id], b)
			}
		}
		return
	}
	for _, id := range sb.ids() {
		if a, ok := sa.data[id]; ok {
			fn(id, a, sb.data[id])
		}
	}
}
