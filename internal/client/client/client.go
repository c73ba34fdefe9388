package client

import (
	"context"

	"github.com/dmitrijs2005/authflow/internal/client/models"
)

// Client is the profile/registration API. It holds no state of its own.
type Client interface {
	// RegisterUser creates a profile. Failures are common.ErrMutationFailed.
	RegisterUser(ctx context.Context, input models.CreateAccountInput) (models.AuthProfile, error)
	// LoginStep1 starts a login and returns the session token to exchange.
	// Failures are common.ErrAuthenticationFailed.
	LoginStep1(ctx context.Context, email, password string) (models.LoginStep1Response, error)
	// LoginStep2 exchanges the session token with the identity provider.
	// Failures are *common.AuthError.
	LoginStep2(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error)
	// RequestPasswordReset starts email password recovery.
	RequestPasswordReset(ctx context.Context, email string) (models.AuthStatus, error)
}
