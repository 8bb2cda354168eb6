package data

import (
	"sync"

	"github.com/aibisolutions/secretary/internal/biz/repo"
)

// transportRegistry is the shared transport handle lookup. Written by the
// connection keeper, read by concurrent delivery calls.
type transportRegistry struct {
	mu         sync.RWMutex
	transports map[string]repo.Transport
}

// NewTransportRegistry creates an empty registry
func NewTransportRegistry() repo.TransportRegistry {
	return &transportRegistry{transports: make(map[string]repo.Transport)}
}

func (r *transportRegistry) Get(name string) (repo.Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transports[name]
	return t, ok
}

func (r *transportRegistry) Put(t repo.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports[t.Name()] = t
}
