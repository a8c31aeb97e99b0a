package http

import (
	"log/slog"
	"net/http"
)

// TicketService is everything the routes need from the application layer.
type TicketService interface {
	TicketIssuer
	TicketFinder
	StatsReader
}

type RouterConfig struct {
	Tickets  TicketService
	Verifier CredentialVerifier
	Health   Pinger
	Logger   *slog.Logger
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}

// NewRouter wires the public routes. Middleware is applied by the caller.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/health", HealthHandler(cfg.Health, cfg.Logger))
	mux.Handle("/generate-ticket", HandleGenerateTicket(cfg.Tickets, cfg.Verifier, cfg.Logger))
	mux.Handle("/ticket/", HandleGetTicket(cfg.Tickets, cfg.Logger))
	mux.Handle("/", HandleSummary(cfg.Tickets, cfg.Logger))
	return mux
}
