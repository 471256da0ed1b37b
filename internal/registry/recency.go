package registry

import "container/list"

// RecencySet is a fixed-capacity membership set with strict FIFO eviction.
//
// Age is insertion time only: Has() never refreshes an entry, and Add() on an
// existing member is a no-op. When the set is full, adding a new member evicts
// exactly the oldest one; the relative order of the survivors is unchanged.
//
// A capacity of 0 (or less) is legal and degenerate: Add never retains
// membership and always returns false, keeping the size<=capacity invariant
// honest for callers that use the return value as "newly seen".
type RecencySet[T comparable] struct {
	capacity int
	order    *list.List // front = oldest
	index    map[T]*list.Element
}

func NewRecencySet[T comparable](capacity int) *RecencySet[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &RecencySet[T]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[T]*list.Element, capacity),
	}
}

// RestoreRecencySet rebuilds a set by replaying Add over items in order
// (oldest first). If len(items) > capacity, the earliest items are evicted
// during replay and only the last `capacity` survive.
func RestoreRecencySet[T comparable](items []T, capacity int) *RecencySet[T] {
	s := NewRecencySet[T](capacity)
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item as the newest member. It returns false without mutating
// anything if item is already present (or if capacity is 0).
func (s *RecencySet[T]) Add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	if s.capacity <= 0 {
		return false
	}
	if s.order.Len() >= s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(T))
	}
	s.index[item] = s.order.PushBack(item)
	return true
}

func (s *RecencySet[T]) Has(item T) bool {
	_, ok := s.index[item]
	return ok
}

// Delete removes item if present and reports whether it was a member.
func (s *RecencySet[T]) Delete(item T) bool {
	el, ok := s.index[item]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.index, item)
	return true
}

func (s *RecencySet[T]) Clear() {
	s.order.Init()
	clear(s.index)
}

func (s *RecencySet[T]) Len() int { return s.order.Len() }

func (s *RecencySet[T]) Capacity() int { return s.capacity }

// Items returns the members oldest-first. This is the persistence order:
// replaying the result through RestoreRecencySet reproduces the set.
func (s *RecencySet[T]) Items() []T {
	out := make([]T, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(T))
	}
	return out
}
