package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

func ptr[T any](v T) *T { return &v }

func TestPreferenceRepo_GetEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Preferences{}, got)
}

func TestPreferenceRepo_UpdateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	err := repo.Update(ctx, model.PreferencesPatch{
		SetupComplete:       ptr(true),
		HAURL:               ptr("https://ha.example"),
		HAToken:             ptr("ha-secret"),
		DebugMode:           ptr(true),
		HAURLDev:            ptr("http://10.0.0.2:8123"),
		HATokenDev:          ptr("dev-secret"),
		IncludeSchemePrefix: ptr(true),
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Preferences{
		SetupComplete:       true,
		HAURL:               "https://ha.example",
		HAToken:             "ha-secret",
		DebugMode:           true,
		HAURLDev:            "http://10.0.0.2:8123",
		HATokenDev:          "dev-secret",
		IncludeSchemePrefix: true,
	}, got)
}

func TestPreferenceRepo_UpdateIsPartial(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{
		HAURL:   ptr("https://ha.example"),
		HAToken: ptr("ha-secret"),
	}))
	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{IncludeSchemePrefix: ptr(true)}))
	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{HAToken: ptr("rotated")}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://ha.example", got.HAURL)
	assert.Equal(t, "rotated", got.HAToken)
	assert.True(t, got.IncludeSchemePrefix)
	assert.False(t, got.DebugMode)
}

func TestPreferenceRepo_UpdateCanUnsetFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{DebugMode: ptr(true)}))
	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{DebugMode: ptr(false)}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.DebugMode)
}

func TestPreferenceRepo_EmptyPatchIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{}))

	_, ok, err := getEntry(ctx, db.Reader, "preferences")
	require.NoError(t, err)
	assert.False(t, ok, "empty patch should not create the entry")
}

func TestPreferenceRepo_CorruptDocumentIsReplaced(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPreferenceRepo(db)
	ctx := context.Background()

	require.NoError(t, setEntry(ctx, db.Writer, "preferences", "not json"))
	require.NoError(t, repo.Update(ctx, model.PreferencesPatch{HAURL: ptr("https://ha.example")}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://ha.example", got.HAURL)
}
