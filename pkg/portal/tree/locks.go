package tree

import (
	"sort"
	"sync"
)

// subtreeLocks serializes mutating operations per top-level folder.
// Mutations under different root folders proceed concurrently; two
// mutations under the same root queue behind each other.
type subtreeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSubtreeLocks() *subtreeLocks {
	return &subtreeLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *subtreeLocks) get(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// lock acquires the mutexes for the given root ids and returns an unlock
// function. Duplicate ids are collapsed and acquisition order is sorted
// so that cross-root operations cannot deadlock each other.
func (s *subtreeLocks) lock(keys ...string) func() {
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}
	sort.Strings(unique)

	held := make([]*sync.Mutex, 0, len(unique))
	for _, k := range unique {
		l := s.get(k)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
