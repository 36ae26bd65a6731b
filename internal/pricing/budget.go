package pricing

import (
	"fmt"
	"math/rand/v2"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Shuffler permutes n elements through swap, with the contract of rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// RandomShuffle reorders differently on every call.
func RandomShuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// SeededShuffle returns a Shuffler that produces the same order for the same
// seed and input, so a shopper can page through one shuffle.
func SeededShuffle(seed uint64) Shuffler {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r.Shuffle
}

// ValidateBudgets checks that budgets are labelled and strictly ascending by
// a positive MaxPrice.
func ValidateBudgets(budgets []model.BudgetRange) error {
	if len(budgets) == 0 {
		return fmt.Errorf("%w: at least one budget is required", model.ErrInvalidBudget)
	}

	prev := decimal.Zero
	for i, b := range budgets {
		if b.Label == "" {
			return fmt.Errorf("%w: budget %d has no label", model.ErrInvalidBudget, i)
		}
		if !b.MaxPrice.GreaterThan(prev) {
			return fmt.Errorf("%w: budget %q max price %s must exceed %s",
				model.ErrInvalidBudget, b.Label, b.MaxPrice, prev)
		}
		prev = b.MaxPrice
	}

	return nil
}

// BudgetBounds returns the range of budget index: (lower, upper], except that
// the first budget also includes zero itself.
func BudgetBounds(budgets []model.BudgetRange, index int) (lower, upper decimal.Decimal, err error) {
	if index < 0 || index >= len(budgets) {
		return decimal.Zero, decimal.Zero, model.NewValidationError("budget", fmt.Sprintf("index %d out of range [0,%d)", index, len(budgets)))
	}

	if index > 0 {
		lower = budgets[index-1].MaxPrice
	}
	return lower, budgets[index].MaxPrice, nil
}

// InBudget reports whether price falls within budget index. Prices at or
// below zero are never in any budget.
func InBudget(budgets []model.BudgetRange, index int, price decimal.Decimal) bool {
	if !price.IsPositive() {
		return false
	}

	lower, upper, err := BudgetBounds(budgets, index)
	if err != nil {
		return false
	}

	return price.GreaterThan(lower) && price.LessThanOrEqual(upper)
}

// BucketProducts returns the catalogue products whose effective price falls
// in budget index, reordered by shuffle. The order is a display shuffle, not a
// ranking; shuffle may be nil to keep catalogue order.
func BucketProducts(catalog []model.Product, budgets []model.BudgetRange, index int, shuffle Shuffler) ([]model.Product, error) {
	if err := ValidateBudgets(budgets); err != nil {
		return nil, err
	}
	if _, _, err := BudgetBounds(budgets, index); err != nil {
		return nil, err
	}

	selected := make([]model.Product, 0)
	for i := range catalog {
		if InBudget(budgets, index, EffectivePrice(&catalog[i])) {
			selected = append(selected, catalog[i])
		}
	}

	if shuffle != nil {
		shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}

	return selected, nil
}
