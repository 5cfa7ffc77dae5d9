package driven

import (
	"context"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// PreferenceStore defines the driven port for user settings persistence.
// Get returns zero-valued Preferences when nothing has been stored.
type PreferenceStore interface {
	Get(ctx context.Context) (model.Preferences, error)
	Update(ctx context.Context, patch model.PreferencesPatch) error
}
