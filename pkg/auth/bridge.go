package auth

import (
	"context"
	"errors"

	"github.com/jward/taskmedal/pkg/model"
)

// ErrCancelled reports that the user abandoned the authorization step.
var ErrCancelled = errors.New("authorization cancelled")

// Credential is the opaque token handed back by the provider's
// authorization step, to be exchanged for a resolved profile.
type Credential struct {
	// AuthCode is the authorization code captured from the redirect.
	AuthCode string
	// cached marks a credential satisfied from the local token cache, in
	// which case no code exchange is needed.
	cached bool
}

// Bridge is the identity-provider collaborator. BeginAuthorization may block
// on user interaction; ExchangeCredential resolves the credential into a
// profile. Provider fields that are missing come back as empty strings.
type Bridge interface {
	BeginAuthorization(ctx context.Context) (Credential, error)
	ExchangeCredential(ctx context.Context, cred Credential) (model.UserProfile, error)
}
