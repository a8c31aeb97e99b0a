package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/ticket-issuer/internal/app"
	"github.com/cimillas/ticket-issuer/internal/clock"
	"github.com/cimillas/ticket-issuer/internal/storage/postgres"
	"github.com/cimillas/ticket-issuer/internal/testutil"
)

func TestTicketFlow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateTickets(t, ctx, pool)

	repo := postgres.NewTicketRepository(pool)
	svc := app.NewTicketService(repo, clock.NewSystem(), "https://tickets.example.com")
	mux := NewRouter(RouterConfig{Tickets: svc, Verifier: &stubVerifier{}, Health: repo})

	issue := func() *httptest.ResponseRecorder {
		body := []byte(`{"vatin":"12345","firstName":"Ana","lastName":"Horvat"}`)
		req := httptest.NewRequest(http.MethodPost, "/generate-ticket", bytes.NewBuffer(body))
		req.Header.Set(headerClientID, "id")
		req.Header.Set(headerClientSecret, "secret")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	var urls []string
	for i := 0; i < 3; i++ {
		rec := issue()
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp generateTicketResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.True(t, strings.HasPrefix(resp.TicketURL, "https://tickets.example.com/ticket/"))
		require.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
		urls = append(urls, resp.TicketURL)
	}
	assert.Equal(t, 3, testutil.CountTickets(t, ctx, pool, "12345"))

	rec := issue()
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var limitResp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&limitResp))
	assert.Equal(t, "Limit of 3 tickets per VATIN reached", limitResp.Error)
	assert.Equal(t, 3, testutil.CountTickets(t, ctx, pool, "12345"))

	id := urls[0][strings.LastIndex(urls[0], "/")+1:]
	getRec := httptest.NewRecorder()
	mux.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/ticket/"+id, nil))
	require.Equal(t, http.StatusOK, getRec.Code)

	var ticket ticketResponse
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&ticket))
	assert.Equal(t, id, ticket.ID)
	assert.Equal(t, "12345", ticket.Vatin)
	assert.Equal(t, "Ana", ticket.FirstName)
	assert.Equal(t, "Horvat", ticket.LastName)

	missingRec := httptest.NewRecorder()
	mux.ServeHTTP(missingRec, httptest.NewRequest(http.MethodGet, "/ticket/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, missingRec.Code)

	summaryRec := httptest.NewRecorder()
	mux.ServeHTTP(summaryRec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, summaryRec.Code)
	assert.Contains(t, summaryRec.Body.String(), "Total Tickets Generated: 3")
}

func TestGenerateTicket_UnauthorizedDoesNotInsert(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateTickets(t, ctx, pool)

	svc := app.NewTicketService(postgres.NewTicketRepository(pool), clock.NewSystem(), "https://tickets.example.com")
	verifier := &stubVerifier{err: assert.AnError}
	mux := NewRouter(RouterConfig{Tickets: svc, Verifier: verifier})

	req := httptest.NewRequest(http.MethodPost, "/generate-ticket",
		bytes.NewBufferString(`{"vatin":"12345","firstName":"Ana","lastName":"Horvat"}`))
	req.Header.Set(headerClientID, "id")
	req.Header.Set(headerClientSecret, "bad")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, verifier.calls)
	assert.Zero(t, testutil.CountTickets(t, ctx, pool, "12345"))
}
