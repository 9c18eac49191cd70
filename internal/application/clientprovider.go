package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// WordPressClientFactory builds a client for one credential.
type WordPressClientFactory func(cred model.WordPressCredential) driven.WordPressClient

// WordPressClientProvider resolves the WordPress client for the currently
// stored credential. The store is consulted on every call so a replaced
// credential takes effect on the next request without restarting.
type WordPressClientProvider struct {
	store     driven.CredentialStore
	newClient WordPressClientFactory
}

// NewWordPressClientProvider creates a provider backed by store.
func NewWordPressClientProvider(store driven.CredentialStore, newClient WordPressClientFactory) *WordPressClientProvider {
	return &WordPressClientProvider{
		store:     store,
		newClient: newClient,
	}
}

// Get returns a client for the active credential. It returns an error
// wrapping driven.ErrNotConfigured when no credential is stored.
func (p *WordPressClientProvider) Get(ctx context.Context) (driven.WordPressClient, error) {
	cred, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading wordpress credential: %w", err)
	}
	return p.newClient(*cred), nil
}

// NewClient builds a client for cred without consulting the store. Used by
// the configuration handshake before cred is persisted.
func (p *WordPressClientProvider) NewClient(cred model.WordPressCredential) driven.WordPressClient {
	return p.newClient(cred)
}
