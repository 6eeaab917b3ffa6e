package flow

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/tokenforge/tokenforge/internal/errors"
)

// Identity is the authenticated account behind a freshly issued token.
// It is shown to the user so they can confirm they consented with the
// account they meant to.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// IdentityFromIDToken decodes the claims of an ID token without verifying
// its signature. The token arrived over TLS straight from the token
// endpoint, so signature verification adds nothing here - this is claim
// introspection, not authentication.
func IdentityFromIDToken(rawIDToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawIDToken, claims); err != nil {
		return nil, errors.Wrapf(err, "unparsable id_token")
	}

	identity := &Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	return identity, nil
}

// FetchIdentity asks the issuer's userinfo endpoint who the token belongs
// to, using OIDC discovery to locate it.
func FetchIdentity(ctx context.Context, issuer string, tok *oauth2.Token) (*Identity, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "OIDC discovery for %s failed", issuer)
	}

	userInfo, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, errors.Wrapf(err, "userinfo request failed")
	}

	return &Identity{
		Subject:       userInfo.Subject,
		Email:         userInfo.Email,
		EmailVerified: userInfo.EmailVerified,
	}, nil
}
