package config

import (
	"fmt"
	"os"

	"storefront/internal/model"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// budgetsFile is the on-disk shape of the budget definitions.
//
//	budgets:
//	  - label: "Under 0.25"
//	    max_price: "0.25"
type budgetsFile struct {
	Budgets []struct {
		Label    string `yaml:"label"`
		MaxPrice string `yaml:"max_price"`
	} `yaml:"budgets"`
}

// DefaultBudgets returns the built-in "shop by price" bands.
func DefaultBudgets() []model.BudgetRange {
	return []model.BudgetRange{
		{Label: "Up to 0.25", MaxPrice: decimal.RequireFromString("0.25")},
		{Label: "Up to 0.50", MaxPrice: decimal.RequireFromString("0.50")},
		{Label: "Up to 1.00", MaxPrice: decimal.RequireFromString("1.00")},
		{Label: "Up to 2.50", MaxPrice: decimal.RequireFromString("2.50")},
		{Label: "Up to 5.00", MaxPrice: decimal.RequireFromString("5.00")},
		{Label: "Up to 10.00", MaxPrice: decimal.RequireFromString("10.00")},
	}
}

// LoadBudgets reads budget definitions from path, or returns the defaults
// when path is empty. The result is validated.
func LoadBudgets(path string) ([]model.BudgetRange, error) {
	if path == "" {
		return DefaultBudgets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read budgets file %s: %w", path, err)
	}

	return ParseBudgets(data)
}

// ParseBudgets decodes and validates YAML budget definitions.
func ParseBudgets(data []byte) ([]model.BudgetRange, error) {
	var file budgetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse budgets: %w", err)
	}

	budgets := make([]model.BudgetRange, 0, len(file.Budgets))
	for i, b := range file.Budgets {
		maxPrice, err := decimal.NewFromString(b.MaxPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: budget %d max_price %q: %v", model.ErrInvalidBudget, i, b.MaxPrice, err)
		}
		budgets = append(budgets, model.BudgetRange{Label: b.Label, MaxPrice: maxPrice})
	}

	if err := pricing.ValidateBudgets(budgets); err != nil {
		return nil, err
	}

	return budgets, nil
}
