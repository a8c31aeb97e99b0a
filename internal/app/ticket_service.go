package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cimillas/ticket-issuer/internal/clock"
	"github.com/cimillas/ticket-issuer/internal/domain"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTaxID(ctx context.Context, taxID string) error
	CountByTaxID(ctx context.Context, taxID string) (int, error)
	Insert(ctx context.Context, draft domain.TicketDraft) (domain.Ticket, error)
	Get(ctx context.Context, id string) (domain.Ticket, error)
	TotalCount(ctx context.Context) (int, error)
}

// TicketCache is an optional lookup cache. Tickets are immutable, so cached
// entries never go stale.
type TicketCache interface {
	Get(ctx context.Context, id string) (domain.Ticket, bool, error)
	Set(ctx context.Context, ticket domain.Ticket) error
}

// CodeEncoder turns a ticket URL into a scannable image payload.
type CodeEncoder interface {
	Encode(content string) (string, error)
}

type TicketService struct {
	repo    TicketRepository
	clock   clock.Clock
	baseURL string
	limit   int
	encoder CodeEncoder
	cache   TicketCache
	logger  *slog.Logger
}

func NewTicketService(repo TicketRepository, clk clock.Clock, baseURL string, opts ...TicketServiceOption) *TicketService {
	svc := &TicketService{
		repo:    repo,
		clock:   clk,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   domain.MaxTicketsPerTaxID,
		encoder: NewQREncoder(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type TicketServiceOption func(*TicketService)

// WithTicketLimit overrides the per-identity cap.
func WithTicketLimit(n int) TicketServiceOption {
	return func(s *TicketService) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithCodeEncoder(enc CodeEncoder) TicketServiceOption {
	return func(s *TicketService) {
		if enc != nil {
			s.encoder = enc
		}
	}
}

func WithTicketCache(cache TicketCache) TicketServiceOption {
	return func(s *TicketService) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) TicketServiceOption {
	return func(s *TicketService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type IssueTicketInput struct {
	TaxID     string
	FirstName string
	LastName  string
}

type IssuedTicket struct {
	Ticket domain.Ticket
	URL    string
	QRCode string
}

type Stats struct {
	TotalCount int
}

// Limit reports the per-identity cap in effect.
func (s *TicketService) Limit() int {
	return s.limit
}

// Issue creates a ticket for the identity unless it already holds the maximum
// number of tickets. The count and insert share one transaction that holds a
// per-identity lock, so concurrent requests cannot overshoot the cap.
func (s *TicketService) Issue(ctx context.Context, in IssueTicketInput) (IssuedTicket, error) {
	if blank(in.TaxID) || blank(in.FirstName) || blank(in.LastName) {
		return IssuedTicket{}, domain.ErrMissingFields
	}
	// Values are stored exactly as given; the tax id is also the cap key.
	draft := domain.TicketDraft{
		TaxID:     in.TaxID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: s.clock.Now(),
	}

	var ticket domain.Ticket
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockTaxID(txCtx, draft.TaxID); err != nil {
			return err
		}
		count, err := s.repo.CountByTaxID(txCtx, draft.TaxID)
		if err != nil {
			return err
		}
		if count >= s.limit {
			return domain.ErrTicketLimitReached
		}
		ticket, err = s.repo.Insert(txCtx, draft)
		return err
	})
	if err != nil {
		return IssuedTicket{}, err
	}

	url := s.TicketURL(ticket.ID)
	code, err := s.encoder.Encode(url)
	if err != nil {
		return IssuedTicket{}, fmt.Errorf("ticket %s: %w", ticket.ID, err)
	}

	s.logger.InfoContext(ctx, "ticket issued", "ticket_id", ticket.ID, "vatin", ticket.TaxID)
	return IssuedTicket{Ticket: ticket, URL: url, QRCode: code}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// TicketURL is the public link for a ticket id.
func (s *TicketService) TicketURL(id string) string {
	return s.baseURL + "/ticket/" + id
}

func (s *TicketService) Lookup(ctx context.Context, id string) (domain.Ticket, error) {
	id, ok := canonicalTicketID(id)
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}

	if s.cache != nil {
		ticket, hit, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "ticket cache read failed", "ticket_id", id, "err", err)
		} else if hit {
			return ticket, nil
		}
	}

	ticket, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ticket); err != nil {
			s.logger.WarnContext(ctx, "ticket cache write failed", "ticket_id", id, "err", err)
		}
	}
	return ticket, nil
}

func (s *TicketService) Stats(ctx context.Context) (Stats, error) {
	n, err := s.repo.TotalCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalCount: n}, nil
}
