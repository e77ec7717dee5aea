package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is an in-memory Issuer.
type Registry struct {
	mu          sync.Mutex
	credentials map[common.Address]Credential
}

func NewRegistry() *Registry {
	return &Registry{credentials: make(map[common.Address]Credential)}
}

func (r *Registry) Issue(_ context.Context, credential Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.credentials[credential.Mint]; ok {
		return fmt.Errorf("issue %s: %w", credential.Mint.Hex(), ErrCredentialExists)
	}
	r.credentials[credential.Mint] = credential
	return nil
}

func (r *Registry) Burn(_ context.Context, mint, owner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	credential, ok := r.credentials[mint]
	if !ok || credential.Owner != owner {
		return fmt.Errorf("burn %s: %w", mint.Hex(), ErrNoCredential)
	}
	delete(r.credentials, mint)
	return nil
}

// Lookup returns the credential for mint.
func (r *Registry) Lookup(mint common.Address) (Credential, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	credential, ok := r.credentials[mint]
	return credential, ok
}
