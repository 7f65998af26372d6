package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/subscription/domain"
	"github.com/smallbiznis/entitlements/pkg/repository"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, owner_type, owner_id, plan_id, trial_ends_at, starts_at, ends_at, canceled_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.OwnerType,
		subscription.OwnerID,
		subscription.PlanID,
		subscription.TrialEndsAt,
		subscription.StartsAt,
		subscription.EndsAt,
		subscription.CanceledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) (bool, error) {
	if subscription == nil {
		return false, gorm.ErrInvalidData
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE subscription_subscriptions
		 SET plan_id = ?, trial_ends_at = ?, starts_at = ?, ends_at = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.PlanID,
		subscription.TrialEndsAt,
		subscription.StartsAt,
		subscription.EndsAt,
		subscription.CanceledAt,
		subscription.UpdatedAt,
		subscription.ID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var s domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscription_subscriptions WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindLatestByOwner(ctx context.Context, db *gorm.DB, owner domain.OwnerRef) (*domain.Subscription, error) {
	var s domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		   FROM subscription_subscriptions
		  WHERE owner_type = ? AND owner_id = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT 1`,
		owner.Type,
		owner.ID,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ExistsByOwner(ctx context.Context, db *gorm.DB, owner domain.OwnerRef) (bool, error) {
	count, err := repository.ProvideStore[domain.Subscription](db).Count(ctx, &domain.Subscription{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, owner domain.OwnerRef) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		   FROM subscription_subscriptions
		  WHERE owner_type = ? AND owner_id = ?
		  ORDER BY created_at DESC, id DESC`,
		owner.Type,
		owner.ID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
