// Package flow implements the OAuth2 authorization-code grant as a linear,
// single-attempt flow: credentials in, authorization URL out, pasted or
// captured code in, token descriptor out. One outbound network call happens
// per attempt (the code exchange); everything else is deterministic.
package flow

import (
	"time"

	"github.com/tokenforge/tokenforge/credentials"
	"github.com/tokenforge/tokenforge/internal/errors"
)

// Status is the position of an attempt in the wizard.
type Status string

const (
	StatusAwaitingCredentials   Status = "awaiting_credentials"
	StatusAwaitingAuthorization Status = "awaiting_authorization"
	StatusAwaitingCode          Status = "awaiting_code"
	StatusExchanging            Status = "exchanging"
	StatusComplete              Status = "complete"
	StatusFailed                Status = "failed"
)

// Attempt tracks one pass through the wizard. Transitions are strictly
// forward; any step can fail, and a failed attempt stays failed - the only
// way out is a fresh attempt, since authorization codes are single use.
type Attempt struct {
	ID         string
	Descriptor *credentials.ClientSecretDescriptor

	// Authorization request parameters, fixed once Authorize runs.
	Scopes      []string
	RedirectURI string
	State       string
	AuthURL     string

	// Outcome
	Token    *TokenDescriptor
	Identity *Identity

	Status        Status
	FailureReason string
	CreatedAt     time.Time
}

// NewAttempt creates an attempt waiting for a credentials upload.
func NewAttempt(id string) *Attempt {
	return &Attempt{
		ID:        id,
		Status:    StatusAwaitingCredentials,
		CreatedAt: time.Now(),
	}
}

// AttachCredentials records the parsed client secret file and the request
// parameters derived from it.
func (a *Attempt) AttachCredentials(d *credentials.ClientSecretDescriptor, scopes []string, redirectURI string) error {
	if err := a.transition(StatusAwaitingCredentials, StatusAwaitingAuthorization); err != nil {
		return err
	}
	a.Descriptor = d
	a.Scopes = scopes
	a.RedirectURI = redirectURI
	return nil
}

// Authorize records the emitted authorization URL and its anti-forgery state.
func (a *Attempt) Authorize(state, authURL string) error {
	if err := a.transition(StatusAwaitingAuthorization, StatusAwaitingCode); err != nil {
		return err
	}
	a.State = state
	a.AuthURL = authURL
	return nil
}

// BeginExchange marks the attempt as performing the token-endpoint call.
func (a *Attempt) BeginExchange() error {
	return a.transition(StatusAwaitingCode, StatusExchanging)
}

// Complete stores the exchange result. Identity may be nil.
func (a *Attempt) Complete(token *TokenDescriptor, identity *Identity) error {
	if token == nil {
		return errors.Wrapf(errors.ErrInvalidTransition, "complete requires a token descriptor")
	}
	if err := a.transition(StatusExchanging, StatusComplete); err != nil {
		return err
	}
	a.Token = token
	a.Identity = identity
	return nil
}

// Fail moves the attempt to its terminal failure state. Failing an already
// failed or completed attempt is rejected.
func (a *Attempt) Fail(cause error) error {
	if a.Status == StatusFailed || a.Status == StatusComplete {
		return errors.Wrapf(errors.ErrInvalidTransition, "cannot fail attempt in state %q", a.Status)
	}
	a.Status = StatusFailed
	if cause != nil {
		a.FailureReason = cause.Error()
	}
	return nil
}

// ExpiresAt reports when the attempt should be garbage collected.
func (a *Attempt) ExpiresAt(lifetime time.Duration) time.Time {
	return a.CreatedAt.Add(lifetime)
}

func (a *Attempt) transition(from, to Status) error {
	if a.Status != from {
		return errors.Wrapf(errors.ErrInvalidTransition, "attempt is %q, expected %q", a.Status, from)
	}
	a.Status = to
	return nil
}
