package server

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tokenforge/tokenforge/credentials"
	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
)

// maxCredentialFileSize caps the uploaded client secret file. Real exports
// are around a kilobyte.
const maxCredentialFileSize = 1 << 20

// UploadCredentialsHandler receives the client secret file and opens a new
// attempt. The file content lives only inside the attempt; nothing is
// written to disk.
func (s *Server) UploadCredentialsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxCredentialFileSize); err != nil {
			redirectWithError(w, r, errors.Wrapf(errors.ErrInvalidDescriptor, "unreadable upload"))
			return
		}
		file, _, err := r.FormFile("credentials")
		if err != nil {
			redirectWithError(w, r, errors.Wrapf(errors.ErrInvalidDescriptor, "no credentials file in upload"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxCredentialFileSize))
		if err != nil {
			redirectWithError(w, r, errors.Wrapf(errors.ErrInvalidDescriptor, "unreadable upload"))
			return
		}

		descriptor, err := credentials.Parse(data)
		if err != nil {
			redirectWithError(w, r, err)
			return
		}

		redirectURI := descriptor.RedirectURI(s.config.GetManualRedirectURI())
		if r.FormValue("capture") == "auto" {
			redirectURI = s.callbackRedirectURI()
		}

		attempt := flow.NewAttempt(uuid.NewString())
		if err := attempt.AttachCredentials(descriptor, s.config.GetScopes(), redirectURI); err != nil {
			redirectWithError(w, r, err)
			return
		}
		if err := s.attempts.Upsert(attempt); err != nil {
			redirectWithError(w, r, err)
			return
		}

		s.SetAttemptCookie(w, r, attempt.ID)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// AuthorizeHandler emits the authorization URL for the current attempt.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.currentAttempt(r)
		if err != nil {
			redirectWithError(w, r, err)
			return
		}

		state := generateRandomString(s.config.GetStateLength())
		authURL, err := s.exchanger.AuthorizationURL(attempt.Descriptor, attempt.Scopes, attempt.RedirectURI, state)
		if err != nil {
			s.failAttempt(attempt, err)
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		if err := attempt.Authorize(state, authURL); err != nil {
			redirectWithError(w, r, err)
			return
		}
		_ = s.attempts.Upsert(attempt)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// ExchangeHandler takes the pasted redirect URL (or bare code) and trades
// it for a token.
func (s *Server) ExchangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.currentAttempt(r)
		if err != nil {
			redirectWithError(w, r, err)
			return
		}

		callback, err := flow.ParseRedirectInput(r.FormValue("redirect_input"))
		if err != nil {
			s.failAttempt(attempt, err)
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}
		if callback.Denied() {
			s.failAttempt(attempt, errors.Wrapf(errors.ErrAuthorizationDenied, "provider returned %q", callback.ErrorCode))
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}
		// The manual flow redirects to a page that never loads, so the state
		// only comes back when the user pasted the full URL. Verify it when
		// present; a mismatch means the code belongs to someone else's flow.
		if callback.State != "" && callback.State != attempt.State {
			s.failAttempt(attempt, errors.Wrapf(errors.ErrMalformedInput, "state parameter does not match this attempt"))
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		s.performExchange(r, attempt, callback.Code)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// OAuthCallbackHandler captures the provider redirect when the attempt was
// configured for automatic capture.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.currentAttempt(r)
		if err != nil {
			redirectWithError(w, r, err)
			return
		}

		if errorParam := r.URL.Query().Get("error"); errorParam != "" {
			s.failAttempt(attempt, errors.Wrapf(errors.ErrAuthorizationDenied, "provider returned %q", errorParam))
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			s.failAttempt(attempt, errors.Wrapf(errors.ErrMalformedInput, "callback has no code parameter"))
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}
		if r.URL.Query().Get("state") != attempt.State {
			s.failAttempt(attempt, errors.Wrapf(errors.ErrMalformedInput, "state parameter does not match this attempt"))
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}

		s.performExchange(r, attempt, code)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// DownloadTokenHandler streams token.json and ends the attempt: once the
// artifact is handed over, nothing about it is retained server side.
func (s *Server) DownloadTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.currentAttempt(r)
		if err != nil {
			redirectWithError(w, r, err)
			return
		}
		if attempt.Status != flow.StatusComplete || attempt.Token == nil {
			redirectWithError(w, r, errors.ErrTokenNotReady)
			return
		}

		data, err := attempt.Token.JSON()
		if err != nil {
			redirectWithError(w, r, err)
			return
		}

		s.ClearAttemptCookie(w, r)
		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Content-Disposition", `attachment; filename="`+flow.TokenFilename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			log.Err(err).Msg("failed to stream token.json")
		}

		_ = s.attempts.Delete(attempt.ID)
	}
}

// RestartHandler abandons the current attempt.
func (s *Server) RestartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(attemptCookieName); err == nil && cookie.Value != "" {
			_ = s.attempts.Delete(cookie.Value)
		}
		s.ClearAttemptCookie(w, r)
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// performExchange runs the token-endpoint call and settles the attempt
// either way. The wizard page renders the outcome from the attempt state.
func (s *Server) performExchange(r *http.Request, attempt *flow.Attempt, code string) {
	if err := attempt.BeginExchange(); err != nil {
		s.failAttempt(attempt, err)
		return
	}

	result, err := s.exchanger.Exchange(r.Context(), attempt.Descriptor, attempt.Scopes, attempt.RedirectURI, code)
	if err != nil {
		s.failAttempt(attempt, err)
		return
	}

	if err := attempt.Complete(result.Token, result.Identity); err != nil {
		s.failAttempt(attempt, err)
		return
	}
	_ = s.attempts.Upsert(attempt)
}

func (s *Server) failAttempt(attempt *flow.Attempt, cause error) {
	log.Warn().Err(cause).Str("attempt", attempt.ID).Str("status", string(attempt.Status)).Msg("attempt failed")
	if err := attempt.Fail(cause); err != nil {
		log.Err(err).Str("attempt", attempt.ID).Msg("could not mark attempt failed")
		return
	}
	_ = s.attempts.Upsert(attempt)
}
