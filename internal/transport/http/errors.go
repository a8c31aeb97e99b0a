package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeMissingFields      = "missing_required_field"
	codeTicketLimitReached = "ticket_limit_reached"
	codeTicketNotFound     = "ticket_not_found"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

const (
	msgInternalError       = "Internal server error"
	msgMissingCredentials  = "Unauthorized: Missing client credentials"
	msgInvalidCredentials  = "Unauthorized: Invalid client credentials"
	msgMissingFields       = "All fields (vatin, firstName, lastName) are required"
	msgTicketNotFound      = "Ticket not found"
	msgTicketCreated       = "Ticket created"
	msgTicketLimitTemplate = "Limit of %d tickets per VATIN reached"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error","code":"internal_error"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}
