package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/ticket-issuer/internal/domain"
)

var errLockOutsideTx = errors.New("identity lock requires a transaction")

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockTaxID takes a transaction-scoped advisory lock keyed by the identity so
// concurrent issuances for the same tax id run their count and insert one at
// a time. The lock is released on commit or rollback.
func (r *TicketRepository) LockTaxID(ctx context.Context, taxID string) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errLockOutsideTx
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, taxID); err != nil {
		return fmt.Errorf("lock tax id: %w", err)
	}
	return nil
}

func (r *TicketRepository) CountByTaxID(ctx context.Context, taxID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE vatin = $1`

	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, taxID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tickets by vatin: %w", err)
	}
	return n, nil
}

func (r *TicketRepository) Insert(ctx context.Context, draft domain.TicketDraft) (domain.Ticket, error) {
	const stmt = `
INSERT INTO tickets (vatin, first_name, last_name, created_at)
VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()))
RETURNING id, created_at`

	var createdAt *time.Time
	if !draft.CreatedAt.IsZero() {
		createdAt = &draft.CreatedAt
	}

	t := domain.Ticket{
		TaxID:     draft.TaxID,
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
	}
	err := conn(ctx, r.pool).QueryRow(ctx, stmt, draft.TaxID, draft.FirstName, draft.LastName, createdAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *TicketRepository) Get(ctx context.Context, id string) (domain.Ticket, error) {
	const query = `
SELECT id, vatin, first_name, last_name, created_at
FROM tickets
WHERE id = $1`

	var t domain.Ticket
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).
		Scan(&t.ID, &t.TaxID, &t.FirstName, &t.LastName, &t.CreatedAt)
	if err != nil {
		// A malformed id cannot name a stored ticket.
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *TicketRepository) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return n, nil
}

func (r *TicketRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
