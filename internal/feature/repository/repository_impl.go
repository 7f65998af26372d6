package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/feature/domain"
	"github.com/smallbiznis/entitlements/pkg/db/option"
	"github.com/smallbiznis/entitlements/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_features (
			id, name, fullname, description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		feature.ID,
		feature.Name,
		feature.Fullname,
		feature.Description,
		feature.CreatedAt,
		feature.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Feature, error) {
	var f domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, fullname, description, created_at, updated_at
		 FROM subscription_features WHERE id = ?`,
		id,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Feature, error) {
	var f domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, fullname, description, created_at, updated_at
		 FROM subscription_features WHERE name = ?`,
		name,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Feature, error) {
	opts := make([]option.QueryOption, 0, 3)
	if filter.Name != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "name", Value: filter.Name}))
	}
	if len(filter.IDs) > 0 {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.IN, Value: filter.IDs}))
	}

	sorts := option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})
	if len(sorts) == 0 {
		sorts = []option.SortBy{{Field: "name"}}
	}
	opts = append(opts, option.WithSortBy(sorts))

	rows, err := repository.ProvideStore[domain.Feature](db).Find(ctx, &domain.Feature{}, opts...)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Feature, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	if feature == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_features
		 SET fullname = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		feature.Fullname,
		feature.Description,
		feature.UpdatedAt,
		feature.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return repository.ProvideStore[domain.Feature](db).Delete(ctx, id)
}
