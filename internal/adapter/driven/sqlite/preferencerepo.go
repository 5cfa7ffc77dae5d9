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
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// JSON keys of the preferences document. They match the option names used by
// the browser add-on so both sides can share one settings entry.
const (
	prefSetupToggle   = "setup_toggle"
	prefHAURL         = "ha_url"
	prefHAToken       = "ha_token"
	prefDebugMode     = "debug_mode_toggle"
	prefHAURLDev      = "ha_url_dev"
	prefHATokenDev    = "ha_token_dev"
	prefIncludeBearer = "include_bearer_toggle"
)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port.
// Settings live in one JSON document under the "preferences" entry; missing
// keys read as zero values.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo backed by the given DB.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get returns the stored preferences.
func (r *PreferenceRepo) Get(ctx context.Context) (model.Preferences, error) {
	doc, ok, err := getEntry(ctx, r.db.Reader, driven.PreferencesEntryKey)
	if err != nil {
		return model.Preferences{}, err
	}
	if !ok {
		return model.Preferences{}, nil
	}

	get := func(key string) gjson.Result { return gjson.Get(doc, key) }

	return model.Preferences{
		SetupComplete:       get(prefSetupToggle).Bool(),
		HAURL:               get(prefHAURL).String(),
		HAToken:             get(prefHAToken).String(),
		DebugMode:           get(prefDebugMode).Bool(),
		HAURLDev:            get(prefHAURLDev).String(),
		HATokenDev:          get(prefHATokenDev).String(),
		IncludeSchemePrefix: get(prefIncludeBearer).Bool(),
	}, nil
}

// Update applies patch to the stored document, leaving keys the patch does
// not mention untouched. The read-modify-write runs in one transaction.
func (r *PreferenceRepo) Update(ctx context.Context, patch model.PreferencesPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preferences update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, ok, err := getEntry(ctx, tx, driven.PreferencesEntryKey)
	if err != nil {
		return err
	}
	if !ok || !gjson.Valid(doc) {
		doc = "{}"
	}

	for _, f := range patchFields(patch) {
		doc, err = sjson.Set(doc, f.key, f.value)
		if err != nil {
			return fmt.Errorf("set preference %q: %w", f.key, err)
		}
	}

	if err := setEntry(ctx, tx, driven.PreferencesEntryKey, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences update: %w", err)
	}
	return nil
}

type patchField struct {
	key   string
	value any
}

func patchFields(p model.PreferencesPatch) []patchField {
	var fields []patchField
	addBool := func(key string, v *bool) {
		if v != nil {
			fields = append(fields, patchField{key: key, value: *v})
		}
	}
	addString := func(key string, v *string) {
		if v != nil {
			fields = append(fields, patchField{key: key, value: *v})
		}
	}

	addBool(prefSetupToggle, p.SetupComplete)
	addString(prefHAURL, p.HAURL)
	addString(prefHAToken, p.HAToken)
	addBool(prefDebugMode, p.DebugMode)
	addString(prefHAURLDev, p.HAURLDev)
	addString(prefHATokenDev, p.HATokenDev)
	addBool(prefIncludeBearer, p.IncludeSchemePrefix)

	return fields
}
