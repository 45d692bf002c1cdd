package provider

import (
	"errors"
	"fmt"
	"slices"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

// ErrUnknownProvider is returned when no client is registered under a name.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry keeps a mapping from provider identifiers to chat clients.
type Registry struct {
	clients map[domain.ProviderID]ports.ChatClient
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: map[domain.ProviderID]ports.ChatClient{}}
}

// Register adds or replaces a client implementation.
func (r *Registry) Register(id domain.ProviderID, client ports.ChatClient) {
	if r.clients == nil {
		r.clients = map[domain.ProviderID]ports.ChatClient{}
	}
	r.clients[id] = client
}

// Resolve returns a client by identifier or an error if it is absent.
func (r *Registry) Resolve(id domain.ProviderID) (ports.ChatClient, error) {
	if client, ok := r.clients[id]; ok && client != nil {
		return client, nil
	}
	return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownProvider, id)
}

// Available lists registered providers in a stable order.
func (r *Registry) Available() []domain.ProviderID {
	out := make([]domain.ProviderID, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
