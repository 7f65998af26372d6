package repository

import (
	"context"

	"github.com/smallbiznis/entitlements/pkg/db/option"
)

// Repository is a generic gorm-backed store keyed by the row's id column.
// Build one per call from the handle in use, so it joins an open transaction.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID any, resource any) error
	Delete(ctx context.Context, resourceID any) error
	Count(ctx context.Context, query *T) (int64, error)
}
