package server

// Wizard routes (HTML)
const (
	RouteIndex          = "/"
	RouteFlowCredential = "/flow/credentials"
	RouteFlowAuthorize  = "/flow/authorize"
	RouteFlowExchange   = "/flow/exchange"
	RouteFlowToken      = "/flow/token.json"
	RouteFlowRestart    = "/flow/restart"

	// RouteOAuthCallback receives the provider redirect when the user opted
	// for automatic code capture instead of pasting the URL.
	RouteOAuthCallback = "/oauth2callback"
)

// JSON API routes
const (
	RouteAPIAttempts         = "/api/attempts"
	RouteAPIAttempt          = "/api/attempts/{id}"
	RouteAPIAttemptAuthorize = "/api/attempts/{id}/authorize"
	RouteAPIAttemptExchange  = "/api/attempts/{id}/exchange"
	RouteAPIAttemptToken     = "/api/attempts/{id}/token"
)

// Static assets
const (
	RouteStaticCSS = "/css/"
)
