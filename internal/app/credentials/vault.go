// Package credentials resolves the analysis-service credential.
package credentials

import (
	"context"
	"strings"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

// Static is a fixed credential, typically from configuration.
type Static string

func (s Static) Credential(context.Context) string { return strings.TrimSpace(string(s)) }

// Vault keeps the credential in the key-value collaborator and falls back to
// a configured default when nothing is stored.
type Vault struct {
	kv       domain.KeyValueStore
	fallback string
}

func NewVault(kv domain.KeyValueStore, fallback string) *Vault {
	return &Vault{kv: kv, fallback: strings.TrimSpace(fallback)}
}

// Credential never fails: storage errors are logged and treated as absent.
func (v *Vault) Credential(ctx context.Context) string {
	val, ok, err := v.kv.Get(ctx, domain.KeyCredential)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("credential lookup failed", "error", err)
	}
	if ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return v.fallback
}

// Set stores a credential. An empty value removes the stored one.
func (v *Vault) Set(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		if err := v.kv.Delete(ctx, domain.KeyCredential); err != nil {
			return &domain.PersistenceError{Op: "delete", Key: domain.KeyCredential, Err: err}
		}
		return nil
	}
	if err := v.kv.Set(ctx, domain.KeyCredential, credential); err != nil {
		return &domain.PersistenceError{Op: "set", Key: domain.KeyCredential, Err: err}
	}
	return nil
}
