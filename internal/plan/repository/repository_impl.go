package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/plan/domain"
	"github.com/smallbiznis/entitlements/pkg/db/option"
	"github.com/smallbiznis/entitlements/pkg/repository"
	"gorm.io/gorm"
)

// `interval` is reserved in MySQL, so plan statements go through the builder,
// which quotes column names for the active dialect.
type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Create(plan).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	return r.findOne(ctx, db, map[string]any{"id": id})
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plan, error) {
	return r.findOne(ctx, db, map[string]any{"name": name})
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where map[string]any) (*domain.Plan, error) {
	var p domain.Plan
	err := db.WithContext(ctx).
		Model(&domain.Plan{}).
		Where(where).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Plan, error) {
	var items []domain.Plan
	stmt := db.WithContext(ctx).Model(&domain.Plan{})

	if filter.Interval != nil {
		stmt = stmt.Where(map[string]any{"interval": string(*filter.Interval)})
	}

	stmt = option.WithOrder("sort_order IS NULL, sort_order ASC, name ASC").Apply(stmt)
	stmt = option.WithLimit(filter.Limit).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	if plan == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Plan{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"fullname":       plan.Fullname,
			"description":    plan.Description,
			"price":          plan.Price,
			"interval":       string(plan.Interval),
			"interval_count": plan.IntervalCount,
			"sort_order":     plan.SortOrder,
			"updated_at":     plan.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return repository.ProvideStore[domain.Plan](db).Delete(ctx, id)
}
