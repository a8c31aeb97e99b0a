package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/ticket-issuer/internal/app"
	"github.com/cimillas/ticket-issuer/internal/auth"
	"github.com/cimillas/ticket-issuer/internal/domain"
)

const (
	headerClientID     = "client_id"
	headerClientSecret = "client_secret"
	maxBodyBytes       = 1 << 20
)

// CredentialVerifier confirms a caller's client credential pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, clientID, clientSecret string) (auth.Identity, error)
}

// TicketIssuer is the minimal interface needed to issue tickets.
type TicketIssuer interface {
	Issue(ctx context.Context, in app.IssueTicketInput) (app.IssuedTicket, error)
	Limit() int
}

// TicketFinder is the minimal interface needed to look up tickets.
type TicketFinder interface {
	Lookup(ctx context.Context, id string) (domain.Ticket, error)
}

// HandleGenerateTicket returns the handler for POST /generate-ticket.
// Credentials are checked for presence first, then the body is validated, and
// only then is the identity provider contacted.
func HandleGenerateTicket(svc TicketIssuer, verifier CredentialVerifier, logger *slog.Logger) http.HandlerFunc {
	logger = resolveLogger(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		clientID := r.Header.Get(headerClientID)
		clientSecret := r.Header.Get(headerClientSecret)
		if clientID == "" || clientSecret == "" {
			logger.InfoContext(r.Context(), "generate ticket rejected", "reason", "missing client credentials")
			http.Error(w, msgMissingCredentials, http.StatusUnauthorized)
			return
		}

		var req generateTicketRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			logger.InfoContext(r.Context(), "generate ticket rejected", "reason", "invalid body", "err", err)
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if !req.complete() {
			writeError(w, http.StatusBadRequest, codeMissingFields, msgMissingFields)
			return
		}

		if _, err := verifier.Verify(r.Context(), clientID, clientSecret); err != nil {
			logger.InfoContext(r.Context(), "generate ticket rejected", "reason", "invalid client credentials", "client_id", clientID)
			http.Error(w, msgInvalidCredentials, http.StatusUnauthorized)
			return
		}

		issued, err := svc.Issue(r.Context(), app.IssueTicketInput{
			TaxID:     req.Vatin,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingFields):
				writeError(w, http.StatusBadRequest, codeMissingFields, msgMissingFields)
			case errors.Is(err, domain.ErrTicketLimitReached):
				logger.InfoContext(r.Context(), "ticket limit reached", "vatin", req.Vatin)
				writeError(w, http.StatusBadRequest, codeTicketLimitReached, fmt.Sprintf(msgTicketLimitTemplate, svc.Limit()))
			default:
				logger.ErrorContext(r.Context(), "error creating ticket", "err", err)
				writeError(w, http.StatusInternalServerError, codeInternalError, msgInternalError)
			}
			return
		}

		writeJSON(w, http.StatusOK, generateTicketResponse{
			Message:   msgTicketCreated,
			TicketURL: issued.URL,
			QRCode:    issued.QRCode,
		})
	}
}

// HandleGetTicket returns the handler for GET /ticket/{id}.
func HandleGetTicket(svc TicketFinder, logger *slog.Logger) http.HandlerFunc {
	logger = resolveLogger(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, "GET, HEAD")
			return
		}

		id, ok := parseTicketPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		ticket, err := svc.Lookup(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrTicketNotFound) {
				writeError(w, http.StatusNotFound, codeTicketNotFound, msgTicketNotFound)
				return
			}
			logger.ErrorContext(r.Context(), "error fetching ticket", "ticket_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, msgInternalError)
			return
		}

		writeJSON(w, http.StatusOK, ticketResponse{
			ID:        ticket.ID,
			Vatin:     ticket.TaxID,
			FirstName: ticket.FirstName,
			LastName:  ticket.LastName,
			CreatedAt: ticket.CreatedAt,
		})
	}
}

func parseTicketPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "ticket" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type generateTicketRequest struct {
	Vatin     string `json:"vatin"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (r generateTicketRequest) complete() bool {
	return strings.TrimSpace(r.Vatin) != "" &&
		strings.TrimSpace(r.FirstName) != "" &&
		strings.TrimSpace(r.LastName) != ""
}

type generateTicketResponse struct {
	Message   string `json:"message"`
	TicketURL string `json:"ticketUrl"`
	QRCode    string `json:"qrCode"`
}

type ticketResponse struct {
	ID        string    `json:"id"`
	Vatin     string    `json:"vatin"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}
