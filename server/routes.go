package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	// WIZARD
	s.RegisterRouteFunc("GET "+RouteIndex, s.IndexHandler())
	s.RegisterRouteHandler("POST "+RouteFlowCredential, ChainMiddleware(s.UploadCredentialsHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFlowAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFlowExchange, ChainMiddleware(s.ExchangeHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteFlowToken, ChainMiddleware(s.DownloadTokenHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFlowRestart, ChainMiddleware(s.RestartHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleware()...))

	// JSON API
	s.RegisterRouteHandler("POST "+RouteAPIAttempts, ChainMiddleware(s.APICreateAttemptHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIAttempt, ChainMiddleware(s.APIGetAttemptHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAPIAttempt, ChainMiddleware(s.APIDeleteAttemptHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIAttemptAuthorize, ChainMiddleware(s.APIAuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIAttemptExchange, ChainMiddleware(s.APIExchangeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIAttemptToken, ChainMiddleware(s.APITokenHandler(), s.APIMiddleware()...))

	// STATIC
	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Printf("[%-19s] %s %s\n", displayMethod, path, errorString)
}
