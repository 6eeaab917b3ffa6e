package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
)

// attemptCookieName tracks the in-progress attempt across wizard steps
const attemptCookieName = "flow_attempt_id"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (s *Server) SetAttemptCookie(w http.ResponseWriter, r *http.Request, attemptID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     attemptCookieName,
		Value:    attemptID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetAttemptLifetime().Seconds()),
	})
}

func (s *Server) ClearAttemptCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     attemptCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// currentAttempt resolves the attempt the browser is working on.
func (s *Server) currentAttempt(r *http.Request) (*flow.Attempt, error) {
	cookie, err := r.Cookie(attemptCookieName)
	if err != nil || cookie.Value == "" {
		return nil, errors.ErrAttemptNotFound
	}
	return s.attempts.Get(cookie.Value)
}

// callbackRedirectURI is the redirect used for automatic code capture.
func (s *Server) callbackRedirectURI() string {
	return s.config.GetBaseURL() + RouteOAuthCallback
}

// redirectWithError sends the browser back to the wizard with a
// human-readable message in the query string.
func redirectWithError(w http.ResponseWriter, r *http.Request, err error) {
	http.Redirect(w, r, RouteIndex+"?error="+url.QueryEscape(userMessage(err)), http.StatusSeeOther)
}

// userMessage maps error kinds onto the wording shown in the wizard.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrInvalidDescriptor):
		return "That file is not a usable client secret file. Upload the JSON export of a Desktop or Web application OAuth client."
	case errors.Is(err, errors.ErrMalformedInput):
		return "No authorization code found. Paste the full redirect URL from the browser address bar, or the bare code."
	case errors.Is(err, errors.ErrAuthorizationDenied):
		return "The provider rejected the authorization code. Codes are single use and short lived - generate a fresh authorization URL and try again."
	case errors.Is(err, errors.ErrNetworkFailure):
		return "Could not reach the token endpoint. Check connectivity and start a new attempt."
	case errors.Is(err, errors.ErrAttemptExpired):
		return "This attempt expired. Start over by uploading the credentials file again."
	case errors.Is(err, errors.ErrAttemptNotFound):
		return "No attempt in progress. Upload a credentials file to begin."
	case errors.Is(err, errors.ErrTokenNotReady):
		return "No token has been generated yet."
	default:
		return err.Error()
	}
}
