package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/warehouse/internal/audit/domain"
	auditrepository "github.com/smallbiznis/warehouse/internal/audit/repository"
	auditservice "github.com/smallbiznis/warehouse/internal/audit/service"
	"github.com/smallbiznis/warehouse/internal/clock"
	"github.com/smallbiznis/warehouse/internal/config"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"github.com/smallbiznis/warehouse/internal/invoice/repository"
	"github.com/smallbiznis/warehouse/internal/linecalc"
	"github.com/smallbiznis/warehouse/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	svc   invoicedomain.Service
	audit auditdomain.Service
	clock *clock.FakeClock
}

func newTestEnv(t *testing.T, log *zap.Logger) testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, log, repository.Provide())
}

func newTestEnvWithRepo(t *testing.T, log *zap.Logger, repo invoicedomain.Repository) testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Config:   config.Config{IssueLocation: time.UTC},
		TaxRates: config.NewStaticTaxRatesHolder(config.DefaultTaxRates()),
		Repo:     repo,
		AuditSvc: audit,
	})
	return testEnv{db: db, svc: svc, audit: audit, clock: fake}
}

func sugarLine() invoicedomain.LineRequest {
	return invoicedomain.LineRequest{
		ProductName:        "Sugar",
		Unit:               "kg",
		Quantity:           "2",
		UnitPriceBeforeTax: "50,000",
		TaxRateCode:        "10%",
	}
}

func saltLine() invoicedomain.LineRequest {
	return invoicedomain.LineRequest{
		ProductName:        "Salt",
		Unit:               "bag",
		Quantity:           "1.5",
		UnitPriceBeforeTax: "20000",
		TaxRateCode:        "KCT",
	}
}

func createInvoice(t *testing.T, env testEnv, kind invoicedomain.InvoiceKind, lines ...invoicedomain.LineRequest) *invoicedomain.Invoice {
	t.Helper()
	inv, err := env.svc.Create(context.Background(), invoicedomain.CreateRequest{
		Kind:        kind,
		PartnerName: "Toko Jaya",
		Lines:       lines,
	})
	require.NoError(t, err)
	return inv
}

func TestCreate_ComputesTotalsAndNumbers(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())

	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine(), saltLine())
	assert.Equal(t, "EXP-20260301-000001", inv.Number)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, inv.Status)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 1, inv.Lines[0].Position)
	assert.Equal(t, int64(100000), inv.Lines[0].TotalBeforeTax)
	assert.Equal(t, int64(10000), inv.Lines[0].TaxAmount)
	assert.Equal(t, int64(30000), inv.Lines[1].TotalAfterTax)
	assert.Equal(t, int64(0), inv.Lines[1].TaxAmount)
	assert.Equal(t, int64(130000), inv.TotalBeforeTax)
	assert.Equal(t, int64(10000), inv.TotalTax)
	assert.Equal(t, int64(140000), inv.TotalAfterTax)

	second := createInvoice(t, env, invoicedomain.InvoiceKindExport)
	assert.Equal(t, "EXP-20260301-000002", second.Number)

	imported := createInvoice(t, env, "import")
	assert.Equal(t, "IMP-20260301-000001", imported.Number)

	loaded, err := env.svc.Get(context.Background(), inv.ID.String())
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, "Sugar", loaded.Lines[0].ProductName)
	assert.Equal(t, "1.5", loaded.Lines[1].Quantity.String())
	assert.Equal(t, int64(140000), loaded.TotalAfterTax)

	logs, err := env.audit.ListForTarget(context.Background(), auditdomain.TargetInvoice, inv.ID.String(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.ActionInvoiceCreated, logs[0].Action)
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())

	_, err := env.svc.Create(context.Background(), invoicedomain.CreateRequest{Kind: "RETURN", PartnerName: "x"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidKind)

	_, err = env.svc.Create(context.Background(), invoicedomain.CreateRequest{Kind: invoicedomain.InvoiceKindImport, PartnerName: "  "})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPartnerName)
}

func TestGet_Errors(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())

	_, err := env.svc.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidInvoiceID)

	_, err = env.svc.Get(context.Background(), "123456")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestUpdateLineField_RecomputesAutoLine(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindImport, sugarLine())

	updated, err := env.svc.UpdateLineField(context.Background(), inv.ID.String(), inv.Lines[0].ID.String(), invoicedomain.FieldChange{
		Field: linecalc.FieldQuantity,
		Value: "3",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(150000), updated.Lines[0].TotalBeforeTax)
	assert.Equal(t, int64(165000), updated.Lines[0].TotalAfterTax)
	assert.False(t, updated.Lines[0].ManuallyEdited)
	assert.Equal(t, int64(165000), updated.TotalAfterTax)
	assert.Equal(t, inv.Lines[0].ID, updated.Lines[0].ID)
}

func TestUpdateLineField_ManualTotalSticks(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindImport, sugarLine(), saltLine())
	lineID := inv.Lines[0].ID.String()

	updated, err := env.svc.UpdateLineField(context.Background(), inv.ID.String(), lineID, invoicedomain.FieldChange{
		Field: linecalc.FieldTotalAfterTax,
		Value: "111,111",
	})
	require.NoError(t, err)
	assert.True(t, updated.Lines[0].ManuallyEdited)
	assert.Equal(t, int64(111111), updated.Lines[0].TotalAfterTax)
	assert.Equal(t, int64(100000), updated.Lines[0].TotalBeforeTax)
	assert.Equal(t, int64(141111), updated.TotalAfterTax)

	updated, err = env.svc.UpdateLineField(context.Background(), inv.ID.String(), lineID, invoicedomain.FieldChange{
		Field: linecalc.FieldQuantity,
		Value: "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "10", updated.Lines[0].Quantity.String())
	assert.Equal(t, int64(111111), updated.Lines[0].TotalAfterTax)

	logs, err := env.audit.ListForTarget(context.Background(), auditdomain.TargetInvoice, inv.ID.String(), 10)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, entry := range logs {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, auditdomain.ActionInvoiceLineTotalOverride)
}

func TestUpdateLineField_DescriptiveAndInvalid(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine())
	lineID := inv.Lines[0].ID.String()

	updated, err := env.svc.UpdateLineField(context.Background(), inv.ID.String(), lineID, invoicedomain.FieldChange{
		Field: invoicedomain.FieldProductName,
		Value: " Brown sugar ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Brown sugar", updated.Lines[0].ProductName)
	assert.Equal(t, int64(110000), updated.TotalAfterTax)

	_, err = env.svc.UpdateLineField(context.Background(), inv.ID.String(), lineID, invoicedomain.FieldChange{Field: linecalc.FieldTotalTax, Value: "1"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidField)

	_, err = env.svc.UpdateLineField(context.Background(), inv.ID.String(), "99", invoicedomain.FieldChange{Field: linecalc.FieldQuantity, Value: "1"})
	assert.ErrorIs(t, err, invoicedomain.ErrLineNotFound)

	_, err = env.svc.UpdateLineField(context.Background(), inv.ID.String(), "x", invoicedomain.FieldChange{Field: linecalc.FieldQuantity, Value: "1"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLineID)
}

func TestUpdateTotal_LocksAggregation(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine())

	updated, err := env.svc.UpdateTotal(context.Background(), inv.ID.String(), invoicedomain.FieldChange{
		Field: linecalc.FieldTotalTax,
		Value: "9000",
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalsManuallyEdited)
	assert.Equal(t, int64(9000), updated.TotalTax)

	updated, err = env.svc.AddLine(context.Background(), inv.ID.String(), saltLine())
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, 2, updated.Lines[1].Position)
	assert.Equal(t, int64(9000), updated.TotalTax)
	assert.Equal(t, int64(110000), updated.TotalAfterTax)

	_, err = env.svc.UpdateTotal(context.Background(), inv.ID.String(), invoicedomain.FieldChange{Field: linecalc.FieldTaxAmount, Value: "1"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidField)
}

func TestRecalculate_ClearsOverrides(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine(), saltLine())
	ctx := context.Background()

	_, err := env.svc.UpdateLineField(ctx, inv.ID.String(), inv.Lines[1].ID.String(), invoicedomain.FieldChange{
		Field: linecalc.FieldTotalBeforeTax,
		Value: "1",
	})
	require.NoError(t, err)
	_, err = env.svc.UpdateTotal(ctx, inv.ID.String(), invoicedomain.FieldChange{Field: linecalc.FieldTotalAfterTax, Value: "5"})
	require.NoError(t, err)

	updated, err := env.svc.Recalculate(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.False(t, updated.TotalsManuallyEdited)
	for _, line := range updated.Lines {
		assert.False(t, line.ManuallyEdited)
	}
	assert.Equal(t, int64(30000), updated.Lines[1].TotalBeforeTax)
	assert.Equal(t, int64(130000), updated.TotalBeforeTax)
	assert.Equal(t, int64(140000), updated.TotalAfterTax)
}

func TestRemoveLine_Reaggregates(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport, sugarLine(), saltLine())

	updated, err := env.svc.RemoveLine(context.Background(), inv.ID.String(), inv.Lines[0].ID.String())
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "Salt", updated.Lines[0].ProductName)
	assert.Equal(t, 1, updated.Lines[0].Position)
	assert.Equal(t, int64(30000), updated.TotalAfterTax)

	loaded, err := env.svc.Get(context.Background(), inv.ID.String())
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
}

func TestLifecycle(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())
	ctx := context.Background()

	empty := createInvoice(t, env, invoicedomain.InvoiceKindImport)
	_, err := env.svc.Confirm(ctx, empty.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyInvoice)

	inv := createInvoice(t, env, invoicedomain.InvoiceKindImport, sugarLine())
	env.clock.Advance(time.Hour)
	confirmed, err := env.svc.Confirm(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	_, err = env.svc.AddLine(ctx, inv.ID.String(), saltLine())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotDraft)

	voided, err := env.svc.Void(ctx, inv.ID.String(), "duplicate")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusVoid, voided.Status)
	assert.Equal(t, "duplicate", voided.Metadata["void_reason"])

	_, err = env.svc.Void(ctx, inv.ID.String(), "")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	list, err := env.svc.List(ctx, invoicedomain.ListRequest{Status: "void"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inv.ID, list[0].ID)

	_, err = env.svc.List(ctx, invoicedomain.ListRequest{Status: "PAID"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}

func TestPreview_WarnsOnUnknownTaxRate(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	env := newTestEnv(t, zap.New(core))

	totals, err := env.svc.Preview(context.Background(), invoicedomain.LineRequest{
		Quantity:           "3",
		UnitPriceBeforeTax: "1000",
		TaxRateCode:        "7%",
	})
	require.NoError(t, err)
	assert.Equal(t, linecalc.Totals{BeforeTax: 3000, Tax: 210, AfterTax: 3210}, totals)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "tax rate code not in catalogue", logs.All()[0].Message)

	_, err = env.svc.Preview(context.Background(), invoicedomain.LineRequest{Quantity: "1", UnitPriceBeforeTax: "1", TaxRateCode: "KCT"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestCreate_OutOfDomainInputStoresZeroTotals(t *testing.T) {
	env := newTestEnv(t, zap.NewNop())

	inv := createInvoice(t, env, invoicedomain.InvoiceKindExport,
		invoicedomain.LineRequest{ProductName: "Comma", Quantity: "1,5", UnitPriceBeforeTax: "100000", TaxRateCode: "10%"},
		invoicedomain.LineRequest{ProductName: "Negative", Quantity: "-2", UnitPriceBeforeTax: "100000", TaxRateCode: "10%"},
		invoicedomain.LineRequest{ProductName: "Huge", Quantity: "1e20", UnitPriceBeforeTax: "1000", TaxRateCode: "10%"},
	)
	require.Len(t, inv.Lines, 3)
	for _, line := range inv.Lines {
		assert.Equal(t, int64(0), line.TotalAfterTax, line.ProductName)
	}
	assert.Equal(t, int64(0), inv.TotalAfterTax)

	updated, err := env.svc.UpdateTotal(context.Background(), inv.ID.String(), invoicedomain.FieldChange{Field: linecalc.FieldTotalAfterTax, Value: "-500"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.TotalAfterTax)
	assert.True(t, updated.TotalsManuallyEdited)
}
