package flow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tokenforge/tokenforge/credentials"
	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/config"
	"github.com/tokenforge/tokenforge/internal/errors"
)

func descriptorWithTokenURI(t *testing.T, tokenURI string) *credentials.ClientSecretDescriptor {
	t.Helper()
	secret := fmt.Sprintf(`{
		"installed": {
			"client_id": "cid",
			"client_secret": "cs",
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": %q
		}
	}`, tokenURI)
	d, err := credentials.Parse([]byte(secret))
	require.NoError(t, err)
	return d
}

func TestAuthorizationURL(t *testing.T) {
	exchanger := flow.NewExchanger(config.OAuth{})

	t.Run("contains the authorization request parameters", func(t *testing.T) {
		d := descriptorWithTokenURI(t, "https://oauth2.googleapis.com/token")
		rawURL, err := exchanger.AuthorizationURL(d, []string{"a", "b"}, "http://localhost:8080", "state-1")
		require.NoError(t, err)

		parsed, err := url.Parse(rawURL)
		require.NoError(t, err)
		require.Equal(t, "accounts.google.com", parsed.Host)

		q := parsed.Query()
		require.Equal(t, "cid", q.Get("client_id"))
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "a b", q.Get("scope"))
		require.Equal(t, "offline", q.Get("access_type"))
		require.Equal(t, "true", q.Get("include_granted_scopes"))
		require.Equal(t, "http://localhost:8080", q.Get("redirect_uri"))
		require.Equal(t, "state-1", q.Get("state"))

		// Space-joined scopes end up plus-encoded in the raw query.
		require.Contains(t, rawURL, "scope=a+b")
	})

	t.Run("nil descriptor", func(t *testing.T) {
		_, err := exchanger.AuthorizationURL(nil, []string{"a"}, "http://localhost", "s")
		require.ErrorIs(t, err, errors.ErrInvalidDescriptor)
	})

	t.Run("missing redirect URI", func(t *testing.T) {
		d := descriptorWithTokenURI(t, "https://oauth2.googleapis.com/token")
		_, err := exchanger.AuthorizationURL(d, []string{"a"}, "", "s")
		require.ErrorIs(t, err, errors.ErrInvalidDescriptor)
	})
}

func TestExchange(t *testing.T) {
	exchanger := flow.NewExchanger(config.OAuth{})

	t.Run("successful exchange maps the provider response", func(t *testing.T) {
		var gotGrantType, gotCode, gotRedirect string
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotGrantType = r.FormValue("grant_type")
			gotCode = r.FormValue("code")
			gotRedirect = r.FormValue("redirect_uri")

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "T",
				"refresh_token": "R",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		}))
		defer provider.Close()

		d := descriptorWithTokenURI(t, provider.URL)
		res, err := exchanger.Exchange(context.Background(), d, []string{"a", "b"}, "http://localhost:8080", "CODE-1")
		require.NoError(t, err)

		require.Equal(t, "authorization_code", gotGrantType)
		require.Equal(t, "CODE-1", gotCode)
		require.Equal(t, "http://localhost:8080", gotRedirect)

		td := res.Token
		require.Equal(t, "T", td.Token)
		require.Equal(t, "R", td.RefreshToken)
		require.True(t, td.HasRefreshToken())
		require.Equal(t, provider.URL, td.TokenURI)
		require.Equal(t, "cid", td.ClientID)
		require.Equal(t, "cs", td.ClientSecret)
		require.Equal(t, []string{"a", "b"}, td.Scopes)
	})

	t.Run("provider-reported scopes override the requested set", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "T",
				"token_type":   "Bearer",
				"scope":        "granted-1 granted-2",
			})
		}))
		defer provider.Close()

		d := descriptorWithTokenURI(t, provider.URL)
		res, err := exchanger.Exchange(context.Background(), d, []string{"a"}, "http://localhost:8080", "CODE")
		require.NoError(t, err)
		require.Equal(t, []string{"granted-1", "granted-2"}, res.Token.Scopes)
		require.False(t, res.Token.HasRefreshToken())
	})

	t.Run("identity decoded from id_token", func(t *testing.T) {
		idToken := makeIDToken(t, map[string]any{"sub": "42", "email": "me@example.com"})
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "T",
				"token_type":   "Bearer",
				"id_token":     idToken,
			})
		}))
		defer provider.Close()

		d := descriptorWithTokenURI(t, provider.URL)
		res, err := exchanger.Exchange(context.Background(), d, []string{"openid"}, "http://localhost:8080", "CODE")
		require.NoError(t, err)
		require.NotNil(t, res.Identity)
		require.Equal(t, "me@example.com", res.Identity.Email)
	})

	t.Run("invalid_grant maps to authorization denied", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		}))
		defer provider.Close()

		d := descriptorWithTokenURI(t, provider.URL)
		res, err := exchanger.Exchange(context.Background(), d, []string{"a"}, "http://localhost:8080", "USED-CODE")
		require.Nil(t, res)
		require.ErrorIs(t, err, errors.ErrAuthorizationDenied)
		require.Contains(t, err.Error(), "invalid_grant")
	})

	t.Run("unreachable endpoint maps to network failure", func(t *testing.T) {
		d := descriptorWithTokenURI(t, "http://127.0.0.1:1/token")
		_, err := exchanger.Exchange(context.Background(), d, []string{"a"}, "http://localhost:8080", "CODE")
		require.ErrorIs(t, err, errors.ErrNetworkFailure)
	})

	t.Run("empty code", func(t *testing.T) {
		d := descriptorWithTokenURI(t, "https://oauth2.googleapis.com/token")
		_, err := exchanger.Exchange(context.Background(), d, []string{"a"}, "http://localhost:8080", "")
		require.ErrorIs(t, err, errors.ErrMalformedInput)
	})
}
