package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

func TestCredentialRepo_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	err := repo.Save(ctx, model.StoredCredential{Token: "tok1", URL: "https://site/api"})
	require.NoError(t, err)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok1", got.Token)
	assert.Equal(t, "https://site/api", got.URL)
}

func TestCredentialRepo_LoadMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCredentialRepo_SaveOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.StoredCredential{Token: "old", URL: "https://a/"}))
	require.NoError(t, repo.Save(ctx, model.StoredCredential{Token: "new", URL: "https://b/"}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StoredCredential{Token: "new", URL: "https://b/"}, *got)
}

func TestCredentialRepo_SpecialCharacters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	cred := model.StoredCredential{Token: `a"b\c.d`, URL: "https://site/api?q=\"x\"&y=1"}
	require.NoError(t, repo.Save(ctx, cred))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cred, *got)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.StoredCredential{Token: "tok1", URL: "https://site/api"}))
	require.NoError(t, repo.Delete(ctx))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCredentialRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	err := repo.Delete(context.Background())
	assert.NoError(t, err, "deleting a missing credential should not error")
}

func TestCredentialRepo_DeleteLeavesPreferences(t *testing.T) {
	db := setupTestDB(t)
	creds := NewCredentialRepo(db)
	prefs := NewPreferenceRepo(db)
	ctx := context.Background()

	url := "https://ha.example"
	require.NoError(t, prefs.Update(ctx, model.PreferencesPatch{HAURL: &url}))
	require.NoError(t, creds.Save(ctx, model.StoredCredential{Token: "tok1"}))
	require.NoError(t, creds.Delete(ctx))

	got, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://ha.example", got.HAURL)
}
