package driven

import (
	"context"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// Keys of the two entries in the local key/value namespace.
const (
	CredentialEntryKey  = "credential"
	PreferencesEntryKey = "preferences"
)

// CredentialStore defines the driven port for persisting the single captured
// credential entry. Only the capture store writes through this port.
type CredentialStore interface {
	// Save replaces the persisted credential.
	Save(ctx context.Context, cred model.StoredCredential) error

	// Load returns the persisted credential, or (nil, nil) if none exists.
	Load(ctx context.Context) (*model.StoredCredential, error)

	// Delete removes any persisted credential. Deleting an absent entry is not an error.
	Delete(ctx context.Context) error
}
