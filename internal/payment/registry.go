package payment

import (
	"strings"
	"sync"
)

// transactionPrefixer is implemented by drivers whose transaction ids carry
// a stable prefix. Only the legacy ByTransactionID path uses it.
type transactionPrefixer interface {
	TransactionPrefix() string
}

// Registry resolves named providers. Registration order decides the default
// when none is configured explicitly: first in wins. Instances are built in
// main from config and passed into the services that need them; there is no
// process-wide registry.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	providers   map[string]Provider
	defaultName string
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
	if r.defaultName == "" {
		r.defaultName = name
	}
}

func (r *Registry) SetDefault(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; ok {
		r.defaultName = name
	}
}

func (r *Registry) Provider(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[strings.ToLower(strings.TrimSpace(name))]
}

func (r *Registry) Default() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[r.defaultName]
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByTransactionID resolves the provider that minted a transaction id from
// its prefix. Compatibility path for donations persisted before the
// provider name was stored alongside the transaction id; new code should
// resolve by the stored name instead.
func (r *Registry) ByTransactionID(transactionID string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		p := r.providers[name]
		prefixer, ok := p.(transactionPrefixer)
		if !ok {
			continue
		}
		if prefix := prefixer.TransactionPrefix(); prefix != "" && strings.HasPrefix(transactionID, prefix) {
			return p
		}
	}
	return nil
}
