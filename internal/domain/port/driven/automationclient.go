package driven

import (
	"context"

	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

// AutomationClient defines the driven port for handing a captured credential
// to the home automation instance.
type AutomationClient interface {
	// UpdateToken sends accessToken to target. Any transport failure or
	// rejected request is returned as an error; callers must not retry.
	UpdateToken(ctx context.Context, target model.AutomationTarget, accessToken string) error
}
