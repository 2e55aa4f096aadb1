package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"projecthub/internal/domain"
)

const googleIssuer = "https://accounts.google.com"

type googleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier returns an IdentityVerifier that validates Google ID
// tokens for the given OAuth client id.
func NewGoogleVerifier(ctx context.Context, clientID string) (domain.IdentityVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover google oidc provider: %w", err)
	}
	return &googleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (g *googleVerifier) Verify(ctx context.Context, rawToken string) (*domain.Identity, error) {
	idToken, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	var claims struct {
		Email      string `json:"email"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, domain.ErrInvalidToken
	}
	// A token without an email or a name cannot map to an account.
	if claims.Email == "" || (claims.Name == "" && claims.GivenName == "") {
		return nil, domain.ErrInvalidToken
	}
	name := claims.GivenName
	lastName := claims.FamilyName
	if name == "" {
		parts := strings.SplitN(claims.Name, " ", 2)
		name = parts[0]
		if lastName == "" && len(parts) > 1 {
			lastName = parts[1]
		}
	}
	return &domain.Identity{
		SubjectID: idToken.Subject,
		Email:     strings.ToLower(claims.Email),
		Name:      name,
		LastName:  lastName,
		Picture:   claims.Picture,
	}, nil
}
