package sqlite

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
	"github.com/ericfisherdev/bearerwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// The credential is kept as a small JSON document {"token": ..., "url": ...}
// under the "credential" entry. Values are stored in plaintext.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Save replaces the persisted credential.
func (r *CredentialRepo) Save(ctx context.Context, cred model.StoredCredential) error {
	doc, err := sjson.Set("{}", "token", cred.Token)
	if err != nil {
		return fmt.Errorf("encode credential token: %w", err)
	}
	doc, err = sjson.Set(doc, "url", cred.URL)
	if err != nil {
		return fmt.Errorf("encode credential url: %w", err)
	}

	return setEntry(ctx, r.db.Writer, driven.CredentialEntryKey, doc)
}

// Load returns the persisted credential, or (nil, nil) if none exists or the
// stored token is empty.
func (r *CredentialRepo) Load(ctx context.Context) (*model.StoredCredential, error) {
	doc, ok, err := getEntry(ctx, r.db.Reader, driven.CredentialEntryKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	cred := model.StoredCredential{
		Token: gjson.Get(doc, "token").String(),
		URL:   gjson.Get(doc, "url").String(),
	}
	if cred.Token == "" {
		return nil, nil
	}
	return &cred, nil
}

// Delete removes the persisted credential.
func (r *CredentialRepo) Delete(ctx context.Context) error {
	return deleteEntry(ctx, r.db.Writer, driven.CredentialEntryKey)
}
