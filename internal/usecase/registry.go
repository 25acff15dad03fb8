package usecase

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"vendorrag/internal/adapter/memstore"
)

// IndexRegistry maps vendor ids to their published VendorIndex. Publishing
// replaces the reference in one step; indexes themselves are never mutated
// after publication.
//
// With maxVendors > 0 the least recently used vendor index is dropped once
// the bound is reached and is rebuilt lazily on its next search.
type IndexRegistry struct {
	mu      sync.RWMutex
	indices map[string]*memstore.VendorIndex
	bounded *lru.Cache[string, *memstore.VendorIndex]
}

func NewIndexRegistry(maxVendors int, onEvict func(vendorID string)) *IndexRegistry {
	r := &IndexRegistry{}
	if maxVendors <= 0 {
		r.indices = make(map[string]*memstore.VendorIndex)
		return r
	}

	cache, _ := lru.NewWithEvict[string, *memstore.VendorIndex](maxVendors, func(vendorID string, _ *memstore.VendorIndex) {
		if onEvict != nil {
			onEvict(vendorID)
		}
	})
	r.bounded = cache
	return r
}

func (r *IndexRegistry) Get(vendorID string) (*memstore.VendorIndex, bool) {
	if r.bounded != nil {
		return r.bounded.Get(vendorID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indices[vendorID]
	return idx, ok
}

// Publish installs idx as the current index of its vendor.
func (r *IndexRegistry) Publish(idx *memstore.VendorIndex) {
	if r.bounded != nil {
		r.bounded.Add(idx.VendorID(), idx)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices[idx.VendorID()] = idx
}

func (r *IndexRegistry) Remove(vendorID string) {
	if r.bounded != nil {
		r.bounded.Remove(vendorID)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indices, vendorID)
}

// Reset drops every vendor index.
func (r *IndexRegistry) Reset() {
	if r.bounded != nil {
		r.bounded.Purge()
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices = make(map[string]*memstore.VendorIndex)
}

func (r *IndexRegistry) Len() int {
	if r.bounded != nil {
		return r.bounded.Len()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indices)
}

// VendorIDs returns the ids of every registered vendor, sorted.
func (r *IndexRegistry) VendorIDs() []string {
	var ids []string
	if r.bounded != nil {
		ids = r.bounded.Keys()
	} else {
		r.mu.RLock()
		for id := range r.indices {
			ids = append(ids, id)
		}
		r.mu.RUnlock()
	}
	sort.Strings(ids)
	return ids
}
