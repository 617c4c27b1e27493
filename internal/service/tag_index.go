package service

import (
	"sort"
	"strings"
	"sync"
)

// tagIndex maps tags to store keys. It only narrows the candidate set;
// RetrieveMemory re-checks every candidate against the query.
type tagIndex struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[string]tagIndexEntry
	byTag   map[string]map[string]struct{}
}

type tagIndexEntry struct {
	tags []string
	seq  uint64
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		entries: make(map[string]tagIndexEntry),
		byTag:   make(map[string]map[string]struct{}),
	}
}

func (ix *tagIndex) put(key string, tags []string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.entries[key]
	if ok {
		ix.unlinkLocked(key, e.tags)
	} else {
		ix.seq++
		e.seq = ix.seq
	}
	e.tags = append([]string(nil), tags...)
	ix.entries[key] = e
	for _, t := range e.tags {
		set, ok := ix.byTag[t]
		if !ok {
			set = make(map[string]struct{})
			ix.byTag[t] = set
		}
		set[key] = struct{}{}
	}
}

func (ix *tagIndex) remove(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.entries[key]
	if !ok {
		return
	}
	ix.unlinkLocked(key, e.tags)
	delete(ix.entries, key)
}

func (ix *tagIndex) unlinkLocked(key string, tags []string) {
	for _, t := range tags {
		set := ix.byTag[t]
		delete(set, key)
		if len(set) == 0 {
			delete(ix.byTag, t)
		}
	}
}

// lookup returns keys under prefix carrying any of tags, oldest first.
func (ix *tagIndex) lookup(prefix string, tags []string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{})
	var keys []string
	for _, t := range tags {
		for key := range ix.byTag[t] {
			if _, dup := seen[key]; dup || !strings.HasPrefix(key, prefix) {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return ix.entries[keys[i]].seq < ix.entries[keys[j]].seq
	})
	return keys
}

func (ix *tagIndex) len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
