package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/usage/domain"
	"github.com/smallbiznis/entitlements/pkg/db/option"
	"github.com/smallbiznis/entitlements/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, subscriptionID, featureID snowflake.ID) (*domain.Usage, error) {
	return repository.ProvideStore[domain.Usage](db).FindOne(ctx, &domain.Usage{
		SubscriptionID: subscriptionID,
		FeatureID:      featureID,
	})
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, usage *domain.Usage) error {
	if usage == nil {
		return gorm.ErrInvalidData
	}
	return repository.ProvideStore[domain.Usage](db).Create(ctx, usage)
}

// Update writes the counter columns. A map keeps a zero count from being skipped.
func (r *repo) Update(ctx context.Context, db *gorm.DB, usage *domain.Usage) error {
	if usage == nil {
		return gorm.ErrInvalidData
	}
	return repository.ProvideStore[domain.Usage](db).Update(ctx, usage.ID, map[string]any{
		"used":        usage.Used,
		"valid_until": usage.ValidUntil,
		"updated_at":  usage.UpdatedAt,
	})
}

func (r *repo) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]domain.Usage, error) {
	rows, err := repository.ProvideStore[domain.Usage](db).Find(ctx,
		&domain.Usage{SubscriptionID: subscriptionID},
		option.WithSortBy([]option.SortBy{{Field: "feature_id"}}),
	)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Usage, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}
	return items, nil
}

func (r *repo) DeleteBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM subscription_usages WHERE subscription_id = ?`, subscriptionID)
	return res.RowsAffected, res.Error
}
