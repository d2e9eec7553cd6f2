package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/internal/invoice/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

// flakyInsertRepo fails the first len(errs) inserts with errs in order and
// counts number lookups.
type flakyInsertRepo struct {
	invoicedomain.Repository

	errs    []error
	inserts int
	counts  int
}

func (r *flakyInsertRepo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	r.inserts++
	if r.inserts <= len(r.errs) {
		return r.errs[r.inserts-1]
	}
	return r.Repository.Insert(ctx, db, invoice)
}

func (r *flakyInsertRepo) CountIssuedBetween(ctx context.Context, db *gorm.DB, kind invoicedomain.InvoiceKind, from, to time.Time) (int64, error) {
	r.counts++
	return r.Repository.CountIssuedBetween(ctx, db, kind, from, to)
}

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

func TestCreate_RetriesNumberCollision(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &flakyInsertRepo{Repository: repository.Provide(), errs: []error{uniqueViolation}}
	env := newTestEnvWithRepo(t, zap.New(core), repo)

	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine())

	assert.Equal(t, 2, repo.inserts)
	assert.Equal(t, 2, repo.counts, "number is allocated again on retry")
	assert.Equal(t, "EXP-20260301-000001", inv.Number)
	assert.Equal(t, 1, logs.FilterMessage("invoice number allocation conflict, retrying").Len())

	loaded, err := env.svc.Get(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inv.Number, loaded.Number)
	require.Len(t, loaded.Lines, 1)
}

func TestCreate_RetriesSerializationFailure(t *testing.T) {
	repo := &flakyInsertRepo{
		Repository: repository.Provide(),
		errs:       []error{&pgconn.PgError{Code: "40001"}},
	}
	env := newTestEnvWithRepo(t, zap.NewNop(), repo)

	inv := createInvoice(t, env, invoicedomain.InvoiceKindImport)
	assert.Equal(t, 2, repo.inserts)
	assert.Equal(t, "IMP-20260301-000001", inv.Number)
}

func TestCreate_GivesUpAfterThreeCollisions(t *testing.T) {
	repo := &flakyInsertRepo{
		Repository: repository.Provide(),
		errs:       []error{uniqueViolation, uniqueViolation, uniqueViolation, uniqueViolation},
	}
	env := newTestEnvWithRepo(t, zap.NewNop(), repo)

	_, err := env.svc.Create(context.Background(), invoicedomain.CreateRequest{
		Kind:        invoicedomain.InvoiceKindExport,
		PartnerName: "Toko Jaya",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, uniqueViolation))
	assert.Equal(t, maxNumberAttempts, repo.inserts)

	list, err := env.svc.List(context.Background(), invoicedomain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("disk full")
	repo := &flakyInsertRepo{Repository: repository.Provide(), errs: []error{boom}}
	env := newTestEnvWithRepo(t, zap.NewNop(), repo)

	_, err := env.svc.Create(context.Background(), invoicedomain.CreateRequest{
		Kind:        invoicedomain.InvoiceKindExport,
		PartnerName: "Toko Jaya",
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, repo.inserts)
}
