package service

import (
	"context"

	"github.com/set-night/healthchallenge/internal/domain"
)

// Notifier receives ledger events after they are committed. Implementations
// must not fail the caller; delivery problems are theirs to log.
type Notifier interface {
	PurchaseReviewed(ctx context.Context, purchase *domain.Purchase, commission *domain.Commission)
	WithdrawalRequested(ctx context.Context, withdrawal *domain.Withdrawal)
	WithdrawalProcessed(ctx context.Context, withdrawal *domain.Withdrawal)
}

type NopNotifier struct{}

func (NopNotifier) PurchaseReviewed(context.Context, *domain.Purchase, *domain.Commission) {}
func (NopNotifier) WithdrawalRequested(context.Context, *domain.Withdrawal)               {}
func (NopNotifier) WithdrawalProcessed(context.Context, *domain.Withdrawal)               {}
