package flow_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
)

func TestParseRedirectInput(t *testing.T) {
	t.Run("full redirect URL", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("http://localhost:8080/?code=ABC123&scope=x")
		require.NoError(t, err)
		require.Equal(t, "ABC123", cb.Code)
		require.False(t, cb.Denied())
	})

	t.Run("URL with state parameter", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("http://localhost:8085/oauth2callback?state=s1&code=C&scope=x")
		require.NoError(t, err)
		require.Equal(t, "C", cb.Code)
		require.Equal(t, "s1", cb.State)
	})

	t.Run("bare authorization code", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("4/0AX4XfWh-long-google-code")
		require.NoError(t, err)
		require.Equal(t, "4/0AX4XfWh-long-google-code", cb.Code)
	})

	t.Run("query string without scheme", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("code=QQ&scope=x")
		require.NoError(t, err)
		require.Equal(t, "QQ", cb.Code)
	})

	t.Run("leading question mark", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("?code=QQ")
		require.NoError(t, err)
		require.Equal(t, "QQ", cb.Code)
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("  http://localhost:8080/?code=WS  \n")
		require.NoError(t, err)
		require.Equal(t, "WS", cb.Code)
	})

	t.Run("no code parameter", func(t *testing.T) {
		_, err := flow.ParseRedirectInput("http://localhost:8080/?scope=x")
		require.ErrorIs(t, err, errors.ErrMalformedInput)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := flow.ParseRedirectInput("   ")
		require.ErrorIs(t, err, errors.ErrMalformedInput)
	})

	t.Run("provider error parameter", func(t *testing.T) {
		cb, err := flow.ParseRedirectInput("http://localhost:8080/?error=access_denied&error_description=user+said+no")
		require.NoError(t, err)
		require.True(t, cb.Denied())
		require.Equal(t, "access_denied", cb.ErrorCode)
		require.Equal(t, "user said no", cb.ErrorDescription)
	})
}
