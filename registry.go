package drivershim

import "sync"

// ShimRegistry holds non-owning references to live shims for broadcast
// of periodic settings reloads. Shims are added at construction and
// removed on deactivation; the registry never outlives its entries'
// usefulness by design.
type ShimRegistry struct {
	mu    sync.RWMutex
	shims []*HmdShim
}

func NewShimRegistry() *ShimRegistry { return &ShimRegistry{} }

func (r *ShimRegistry) Add(s *HmdShim) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shims = append(r.shims, s)
}

func (r *ShimRegistry) Remove(s *HmdShim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.shims {
		if existing == s {
			r.shims = append(r.shims[:i], r.shims[i+1:]...)
			return
		}
	}
}

func (r *ShimRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shims)
}

// ApplySettingsChanges asks every live shim to reload its model and
// notify the host on change. The broadcast runs outside the lock so a
// shim deactivating from within a callback cannot deadlock.
func (r *ShimRegistry) ApplySettingsChanges() {
	r.mu.RLock()
	snapshot := make([]*HmdShim, len(r.shims))
	copy(snapshot, r.shims)
	r.mu.RUnlock()

	for _, s := range snapshot {
		s.ApplySettingsChanges()
	}
}
