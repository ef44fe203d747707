package repo

import (
	"context"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

// TargetSource is the target registry. Load is called at the start of every
// cycle and returns descriptors in configuration order.
type TargetSource interface {
	Load(ctx context.Context) ([]domain.Descriptor, error)
}

// ResultStore keeps the latest result per target, in memory only.
type ResultStore interface {
	Append(ctx context.Context, r *domain.CheckResult) error
	Latest(ctx context.Context) ([]domain.CheckResult, error)
}
