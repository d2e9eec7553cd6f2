package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/warehouse/internal/audit/domain"
	"github.com/smallbiznis/warehouse/internal/audit/repository"
	"github.com/smallbiznis/warehouse/internal/clock"
	obscontext "github.com/smallbiznis/warehouse/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, repo auditdomain.Repository, log *zap.Logger) (*gorm.DB, auditdomain.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return db, NewService(Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repo,
	})
}

func TestRecord_PersistsWithRequestContext(t *testing.T) {
	_, svc := newTestService(t, repository.Provide(), zap.NewNop())

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithClientIP(ctx, "10.0.0.1")
	svc.Record(ctx, nil, auditdomain.ActionInvoiceTotalOverride, auditdomain.TargetInvoice, "42", map[string]any{
		"field": "total_tax",
		"":      "dropped",
	})

	logs, err := svc.ListForTarget(context.Background(), auditdomain.TargetInvoice, "42", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.ActionInvoiceTotalOverride, logs[0].Action)
	assert.Equal(t, "total_tax", logs[0].Metadata["field"])
	assert.Equal(t, "req-1", logs[0].Metadata["request_id"])
	assert.NotContains(t, logs[0].Metadata, "")
	require.NotNil(t, logs[0].IPAddress)
	assert.Equal(t, "10.0.0.1", *logs[0].IPAddress)
}

type failingRepo struct{ auditdomain.Repository }

func (failingRepo) Insert(context.Context, *gorm.DB, *auditdomain.AuditLog) error {
	return errors.New("disk full")
}

func TestRecord_FailureIsLoggedOnly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, svc := newTestService(t, failingRepo{}, zap.New(core))

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), nil, auditdomain.ActionInvoiceConfirmed, auditdomain.TargetInvoice, "1", nil)
	})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to write audit log", logs.All()[0].Message)
}

func TestListForTarget_RequiresTarget(t *testing.T) {
	_, svc := newTestService(t, repository.Provide(), zap.NewNop())
	_, err := svc.ListForTarget(context.Background(), "", "1", 10)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTarget)
}
