package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTaxRatesHolder_DefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	holder, err := NewTaxRatesHolder(Config{}, zap.NewNop())
	require.NoError(t, err)

	codes := make([]string, 0)
	for _, rate := range holder.Get() {
		codes = append(codes, rate.Code)
	}
	assert.Equal(t, []string{"KCT", "0%", "5%", "8%", "10%"}, codes)
	assert.True(t, holder.Contains(" KCT "))
	assert.False(t, holder.Contains("7%"))
}

func TestNewTaxRatesHolder_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxrates.yml")
	content := "tax_rates:\n  - code: KCT\n    label: Exempt\n  - code: \"10%\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewTaxRatesHolder(Config{TaxRatesConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	rates := holder.Get()
	require.Len(t, rates, 2)
	assert.Equal(t, TaxRate{Code: "KCT", Label: "Exempt"}, rates[0])
	assert.Equal(t, TaxRate{Code: "10%", Label: "10%"}, rates[1])
}

func TestValidateTaxRates(t *testing.T) {
	_, err := validateTaxRates(nil)
	assert.Error(t, err)

	_, err = validateTaxRates([]TaxRate{{Code: "5%"}, {Code: " 5% "}})
	assert.Error(t, err)

	_, err = validateTaxRates([]TaxRate{{Code: "  "}})
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("INVOICE_TIMEZONE", "not/a-zone")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "UTC", cfg.IssueLocation.String())
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}
