package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/warehouse/internal/linecalc"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TaxRate is one selectable entry of the tax-rate catalogue.
type TaxRate struct {
	Code  string `mapstructure:"code" json:"code"`
	Label string `mapstructure:"label" json:"label"`
}

func DefaultTaxRates() []TaxRate {
	return []TaxRate{
		{Code: string(linecalc.TaxRateExempt), Label: "Not subject to tax"},
		{Code: string(linecalc.TaxRate0), Label: "0%"},
		{Code: string(linecalc.TaxRate5), Label: "5%"},
		{Code: string(linecalc.TaxRate8), Label: "8%"},
		{Code: string(linecalc.TaxRate10), Label: "10%"},
	}
}

// TaxRatesHolder keeps the current catalogue and swaps it when the
// config file changes on disk.
type TaxRatesHolder struct {
	current atomic.Value // holds []TaxRate
	log     *zap.Logger
}

// NewStaticTaxRatesHolder returns a holder that never reloads.
func NewStaticTaxRatesHolder(rates []TaxRate) *TaxRatesHolder {
	holder := &TaxRatesHolder{log: zap.NewNop()}
	holder.current.Store(append([]TaxRate(nil), rates...))
	return holder
}

func NewTaxRatesHolder(cfg Config, log *zap.Logger) (*TaxRatesHolder, error) {
	v := viper.New()

	if cfg.TaxRatesConfigPath != "" {
		v.SetConfigFile(cfg.TaxRatesConfigPath)
	} else {
		v.SetConfigName("taxrates")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/warehouse")
		v.AddConfigPath(".")
	}

	holder := &TaxRatesHolder{log: log.Named("config.taxrates")}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(DefaultTaxRates())
		return holder, nil
	}

	rates, err := decodeTaxRates(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(rates)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeTaxRates(v)
		if err != nil {
			holder.log.Warn("invalid tax rate catalogue ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		holder.log.Info("tax rate catalogue reloaded", zap.String("file", e.Name), zap.Int("count", len(updated)))
	})

	return holder, nil
}

func (h *TaxRatesHolder) Get() []TaxRate {
	rates := h.current.Load().([]TaxRate)
	return append([]TaxRate(nil), rates...)
}

// Contains reports whether code is listed in the current catalogue.
func (h *TaxRatesHolder) Contains(code string) bool {
	code = strings.TrimSpace(code)
	for _, rate := range h.current.Load().([]TaxRate) {
		if rate.Code == code {
			return true
		}
	}
	return false
}

func decodeTaxRates(v *viper.Viper) ([]TaxRate, error) {
	var rates []TaxRate
	if err := v.UnmarshalKey("tax_rates", &rates); err != nil {
		return nil, err
	}
	return validateTaxRates(rates)
}

func validateTaxRates(rates []TaxRate) ([]TaxRate, error) {
	if len(rates) == 0 {
		return nil, errors.New("tax_rates cannot be empty")
	}
	seen := make(map[string]bool, len(rates))
	out := make([]TaxRate, 0, len(rates))
	for _, rate := range rates {
		rate.Code = strings.TrimSpace(rate.Code)
		if rate.Code == "" {
			return nil, errors.New("tax_rates: code cannot be empty")
		}
		if seen[rate.Code] {
			return nil, errors.New("tax_rates: duplicate code " + rate.Code)
		}
		seen[rate.Code] = true
		if strings.TrimSpace(rate.Label) == "" {
			rate.Label = rate.Code
		}
		out = append(out, rate)
	}
	return out, nil
}
