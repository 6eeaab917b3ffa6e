package server

import (
	"net/http"
	"strings"

	"github.com/tokenforge/tokenforge/flow"
)

type wizardPageData struct {
	AppName string
	Error   string

	HasAttempt bool
	Status     flow.Status

	// Step 1: credentials
	ClientID   string
	ClientType string

	// Step 2: authorization
	Scopes      []string
	RedirectURI string
	AuthURL     string
	AutoCapture bool

	// Step 3: outcome
	HasRefreshToken bool
	GrantedScopes   int
	IdentityEmail   string
	TokenPreview    string
	FailureReason   string
}

// IndexHandler renders the wizard. The page is a pure function of the
// current attempt's state; every action redirects back here.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := wizardPageData{
			AppName: s.config.GetAppName(),
			Error:   r.URL.Query().Get("error"),
		}

		if attempt, err := s.currentAttempt(r); err == nil {
			data.HasAttempt = true
			data.Status = attempt.Status
			if attempt.Descriptor != nil {
				data.ClientID = attempt.Descriptor.ClientID
				data.ClientType = string(attempt.Descriptor.Type)
			}
			data.Scopes = attempt.Scopes
			data.RedirectURI = attempt.RedirectURI
			data.AuthURL = attempt.AuthURL
			data.AutoCapture = strings.HasSuffix(attempt.RedirectURI, RouteOAuthCallback)
			data.FailureReason = attempt.FailureReason

			if attempt.Token != nil {
				data.HasRefreshToken = attempt.Token.HasRefreshToken()
				data.GrantedScopes = len(attempt.Token.Scopes)
				if preview, err := attempt.Token.JSON(); err == nil {
					data.TokenPreview = string(preview)
				}
			}
			if attempt.Identity != nil {
				data.IdentityEmail = attempt.Identity.Email
			}
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		_ = tmpl.Execute(w, data)
	}
}
