package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tokenforge/tokenforge/credentials"
	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// APICreateAttemptHandler opens an attempt from a raw client secret file
// posted as the request body.
func (s *Server) APICreateAttemptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialFileSize))
		if err != nil {
			writeJSONError(w, "invalid_request", "Failed to read request body", http.StatusBadRequest)
			return
		}

		descriptor, err := credentials.Parse(data)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		redirectURI := descriptor.RedirectURI(s.config.GetManualRedirectURI())
		if r.URL.Query().Get("capture") == "auto" {
			redirectURI = s.callbackRedirectURI()
		}

		attempt := flow.NewAttempt(uuid.NewString())
		if err := attempt.AttachCredentials(descriptor, s.config.GetScopes(), redirectURI); err != nil {
			writeAPIError(w, err)
			return
		}
		if err := s.attempts.Upsert(attempt); err != nil {
			writeAPIError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(attemptResponse(attempt))
	}
}

// APIGetAttemptHandler reports the attempt's position in the flow.
func (s *Server) APIGetAttemptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.attempts.Get(r.PathValue("id"))
		if err != nil {
			writeAPIError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(attemptResponse(attempt))
	}
}

// APIDeleteAttemptHandler abandons an attempt.
func (s *Server) APIDeleteAttemptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.attempts.Delete(r.PathValue("id")); err != nil {
			writeAPIError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// APIAuthorizeHandler emits the authorization URL for an attempt.
func (s *Server) APIAuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.attempts.Get(r.PathValue("id"))
		if err != nil {
			writeAPIError(w, err)
			return
		}

		state := generateRandomString(s.config.GetStateLength())
		authURL, err := s.exchanger.AuthorizationURL(attempt.Descriptor, attempt.Scopes, attempt.RedirectURI, state)
		if err != nil {
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}
		if err := attempt.Authorize(state, authURL); err != nil {
			writeAPIError(w, err)
			return
		}
		_ = s.attempts.Upsert(attempt)

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"attempt_id": attempt.ID,
			"status":     string(attempt.Status),
			"auth_url":   authURL,
			"state":      state,
		})
	}
}

// APIExchangeHandler trades the pasted redirect (or bare code) for tokens.
func (s *Server) APIExchangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.attempts.Get(r.PathValue("id"))
		if err != nil {
			writeAPIError(w, err)
			return
		}

		var body struct {
			RedirectInput string `json:"redirect_input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse JSON body", http.StatusBadRequest)
			return
		}

		callback, err := flow.ParseRedirectInput(body.RedirectInput)
		if err != nil {
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}
		if callback.Denied() {
			err := errors.Wrapf(errors.ErrAuthorizationDenied, "provider returned %q", callback.ErrorCode)
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}
		if callback.State != "" && callback.State != attempt.State {
			err := errors.Wrapf(errors.ErrMalformedInput, "state parameter does not match this attempt")
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}

		if err := attempt.BeginExchange(); err != nil {
			writeAPIError(w, err)
			return
		}
		result, err := s.exchanger.Exchange(r.Context(), attempt.Descriptor, attempt.Scopes, attempt.RedirectURI, callback.Code)
		if err != nil {
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}
		if err := attempt.Complete(result.Token, result.Identity); err != nil {
			s.failAttempt(attempt, err)
			writeAPIError(w, err)
			return
		}
		_ = s.attempts.Upsert(attempt)

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(attemptResponse(attempt))
	}
}

// APITokenHandler downloads token.json and ends the attempt.
func (s *Server) APITokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := s.attempts.Get(r.PathValue("id"))
		if err != nil {
			writeAPIError(w, err)
			return
		}
		if attempt.Status != flow.StatusComplete || attempt.Token == nil {
			writeAPIError(w, errors.ErrTokenNotReady)
			return
		}

		data, err := attempt.Token.JSON()
		if err != nil {
			writeAPIError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Content-Disposition", `attachment; filename="`+flow.TokenFilename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			log.Err(err).Msg("failed to stream token.json")
		}

		_ = s.attempts.Delete(attempt.ID)
	}
}

// attemptResponse is the API's view of an attempt. The token appears only
// once the attempt is complete; identity only when it could be derived.
func attemptResponse(attempt *flow.Attempt) map[string]any {
	resp := map[string]any{
		"attempt_id": attempt.ID,
		"status":     string(attempt.Status),
	}
	if attempt.Descriptor != nil {
		resp["client_id"] = attempt.Descriptor.ClientID
		resp["application_type"] = string(attempt.Descriptor.Type)
		resp["redirect_uri"] = attempt.RedirectURI
		resp["scopes"] = attempt.Scopes
	}
	if attempt.AuthURL != "" {
		resp["auth_url"] = attempt.AuthURL
	}
	if attempt.FailureReason != "" {
		resp["failure_reason"] = attempt.FailureReason
	}
	if attempt.Token != nil {
		resp["token"] = attempt.Token
	}
	if attempt.Identity != nil && attempt.Identity.Email != "" {
		resp["email"] = attempt.Identity.Email
	}
	return resp
}

// writeAPIError maps error kinds onto OAuth2-style error responses.
func writeAPIError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidDescriptor):
		writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrMalformedInput):
		writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrAuthorizationDenied):
		writeJSONError(w, "invalid_grant", err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrNetworkFailure):
		writeJSONError(w, "temporarily_unavailable", err.Error(), http.StatusBadGateway)
	case errors.Is(err, errors.ErrAttemptNotFound), errors.Is(err, errors.ErrAttemptExpired):
		writeJSONError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, errors.ErrInvalidTransition), errors.Is(err, errors.ErrTokenNotReady):
		writeJSONError(w, "invalid_state", err.Error(), http.StatusConflict)
	default:
		writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
	}
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
