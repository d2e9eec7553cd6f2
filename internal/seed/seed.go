// Package seed creates demo invoices for local development.
package seed

import (
	"context"
	"errors"

	"github.com/smallbiznis/warehouse/internal/config"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, svc invoicedomain.Service, log *zap.Logger) {
	if !cfg.SeedDemo {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			created, err := EnsureDemoInvoices(ctx, db, svc)
			if err != nil {
				log.Warn("demo seed failed", zap.Error(err))
				return nil
			}
			log.Info("demo seed done", zap.Int("invoices_created", created))
			return nil
		},
	})
}

// EnsureDemoInvoices creates one import and one export draft when the
// invoices table is empty. It returns the number of invoices created.
func EnsureDemoInvoices(ctx context.Context, db *gorm.DB, svc invoicedomain.Service) (int, error) {
	if db == nil || svc == nil {
		return 0, errors.New("seed database handle and invoice service are required")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, req := range demoInvoices() {
		if _, err := svc.Create(ctx, req); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func demoInvoices() []invoicedomain.CreateRequest {
	return []invoicedomain.CreateRequest{
		{
			Kind:          invoicedomain.InvoiceKindImport,
			PartnerName:   "PT Sumber Pangan",
			WarehouseCode: "WH-01",
			Note:          "Demo goods receipt",
			Lines: []invoicedomain.LineRequest{
				{ProductName: "Rice 25kg", Unit: "sack", Quantity: "40", UnitPriceBeforeTax: "310,000", TaxRateCode: "KCT"},
				{ProductName: "Cooking oil 5L", Unit: "jerrycan", Quantity: "24", UnitPriceBeforeTax: "92,500", TaxRateCode: "10%"},
			},
		},
		{
			Kind:          invoicedomain.InvoiceKindExport,
			PartnerName:   "Toko Makmur",
			WarehouseCode: "WH-01",
			Note:          "Demo delivery",
			Lines: []invoicedomain.LineRequest{
				{ProductName: "Rice 25kg", Unit: "sack", Quantity: "12.5", UnitPriceBeforeTax: "335,000", TaxRateCode: "KCT"},
				{ProductName: "Sugar 1kg", Unit: "pack", Quantity: "100", UnitPriceBeforeTax: "15,750", TaxRateCode: "8%"},
			},
		},
	}
}
