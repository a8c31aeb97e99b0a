package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/ticket-issuer/internal/domain"
	"github.com/cimillas/ticket-issuer/internal/testutil"
)

func TestTicketRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewTicketRepository(pool)

	t.Run("Insert returns generated id and Get reads it back", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateTickets(t, ctx, pool)

		createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
		ticket, err := repo.Insert(ctx, domain.TicketDraft{
			TaxID:     "12345",
			FirstName: "Ana",
			LastName:  "Horvat",
			CreatedAt: createdAt,
		})
		require.NoError(t, err)
		_, err = uuid.Parse(ticket.ID)
		require.NoError(t, err, "expected uuid id, got %q", ticket.ID)
		assert.True(t, ticket.CreatedAt.Equal(createdAt))

		got, err := repo.Get(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, got.ID)
		assert.Equal(t, "12345", got.TaxID)
		assert.Equal(t, "Ana", got.FirstName)
		assert.Equal(t, "Horvat", got.LastName)
		assert.True(t, got.CreatedAt.Equal(createdAt))
	})

	t.Run("Insert defaults created_at when unset", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateTickets(t, ctx, pool)

		ticket, err := repo.Insert(ctx, domain.TicketDraft{TaxID: "1", FirstName: "A", LastName: "B"})
		require.NoError(t, err)
		assert.False(t, ticket.CreatedAt.IsZero())
	})

	t.Run("Get returns ErrTicketNotFound for unknown and malformed ids", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateTickets(t, ctx, pool)

		_, err := repo.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrTicketNotFound)

		_, err = repo.Get(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrTicketNotFound)
	})

	t.Run("CountByTaxID and TotalCount", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateTickets(t, ctx, pool)
		testutil.InsertTickets(t, ctx, pool, "12345", 2)
		testutil.InsertTickets(t, ctx, pool, "67890", 1)

		n, err := repo.CountByTaxID(ctx, "12345")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = repo.CountByTaxID(ctx, "00000")
		require.NoError(t, err)
		assert.Zero(t, n)

		total, err := repo.TotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("LockTaxID requires a transaction", func(t *testing.T) {
		ctx := context.Background()
		assert.ErrorIs(t, repo.LockTaxID(ctx, "12345"), errLockOutsideTx)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.LockTaxID(txCtx, "12345")
		})
		assert.NoError(t, err)
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateTickets(t, ctx, pool)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.Insert(txCtx, domain.TicketDraft{TaxID: "rollback", FirstName: "A", LastName: "B"}); err != nil {
				return err
			}
			return domain.ErrTicketLimitReached
		})
		assert.ErrorIs(t, err, domain.ErrTicketLimitReached)
		assert.Zero(t, testutil.CountTickets(t, ctx, pool, "rollback"))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(context.Background()))
	})
}
