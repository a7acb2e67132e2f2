package extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// ErrBudgetExceeded indicates the extraction call budget is spent.
var ErrBudgetExceeded = errors.New("extraction call budget exceeded")

// Budget tracks extraction calls against a fixed allowance. A zero
// allowance means unlimited. Safe for concurrent use; one Budget may
// back several chains to enforce a shared limit across them.
type Budget struct {
	mu       sync.Mutex
	maxCalls int64
	used     int64
}

// NewBudget creates a Budget allowing up to maxCalls extraction
// calls. Zero means unlimited.
func NewBudget(maxCalls int64) *Budget {
	return &Budget{maxCalls: maxCalls}
}

// Remaining reports how many calls the budget still allows, or -1
// when the budget is unlimited.
func (b *Budget) Remaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxCalls == 0 {
		return -1
	}
	remaining := b.maxCalls - b.used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Used reports how many calls have been charged so far, including
// calls that ended in collaborator errors.
func (b *Budget) Used() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// consume charges one call, failing once the allowance is spent.
func (b *Budget) consume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxCalls > 0 && b.used >= b.maxCalls {
		return fmt.Errorf("%w: %d calls used of %d allowed", ErrBudgetExceeded, b.used, b.maxCalls)
	}
	b.used++
	return nil
}

// budgetExtractor refuses calls once a shared budget is spent,
// keeping retry loops from burning collaborator quota.
type budgetExtractor struct {
	next   ports.Extractor
	budget *Budget
}

// BudgetMiddleware creates middleware that charges every extraction
// call against the given budget before it reaches the collaborator.
func BudgetMiddleware(budget *Budget) Middleware {
	return func(next ports.Extractor) ports.Extractor {
		return &budgetExtractor{
			next:   next,
			budget: budget,
		}
	}
}

// Extract claims budget before forwarding. Once the budget is spent
// the request never reaches the collaborator.
func (b *budgetExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	if err := b.budget.consume(); err != nil {
		return domain.ExtractionResponse{}, err
	}
	return b.next.Extract(ctx, req)
}
