package app

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// IdentityVerifier turns a raw ID token into the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(provider *oidc.Provider, clientID string) *OIDCVerifier {
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}
}

func (o *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("can not verify id token: %w", err)
	}
	var claims struct {
		Email     string `json:"email"`
		Username  string `json:"preferred_username"`
		Nickname  string `json:"nickname"`
		FirstName string `json:"given_name"`
		LastName  string `json:"family_name"`
		Picture   string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("can not parse id token claims: %w", err)
	}
	username := claims.Username
	if username == "" {
		username = claims.Nickname
	}
	return &Identity{
		Subject:   idToken.Subject,
		Email:     claims.Email,
		Username:  username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Picture:   claims.Picture,
	}, nil
}
