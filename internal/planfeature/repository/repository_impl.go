package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/planfeature/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const assignmentQuery = `SELECT pf.plan_id, pf.feature_id, pf.value, pf.sort_order, pf.created_at, pf.updated_at,
		f.name, f.fullname, f.description
	   FROM subscription_feature_plan pf
	   JOIN subscription_features f ON f.id = pf.feature_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, item *domain.PlanFeature) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_id"}, {Name: "feature_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "sort_order", "updated_at"}),
		}).
		Create(item).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, planID, featureID snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM subscription_feature_plan WHERE plan_id = ? AND feature_id = ?`,
		planID,
		featureID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListByPlan(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.Assignment, error) {
	var items []domain.Assignment
	err := db.WithContext(ctx).Raw(
		assignmentQuery+`
		  WHERE pf.plan_id = ?
		  ORDER BY pf.sort_order IS NULL, pf.sort_order ASC, f.name ASC`,
		planID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, planID, featureID snowflake.ID) (*domain.Assignment, error) {
	var item domain.Assignment
	err := db.WithContext(ctx).Raw(
		assignmentQuery+` WHERE pf.plan_id = ? AND pf.feature_id = ?`,
		planID,
		featureID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.FeatureID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, planID snowflake.ID, featureName string) (*domain.Assignment, error) {
	var item domain.Assignment
	err := db.WithContext(ctx).Raw(
		assignmentQuery+` WHERE pf.plan_id = ? AND f.name = ?`,
		planID,
		featureName,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.FeatureID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, planID snowflake.ID, items []domain.PlanFeature, now time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM subscription_feature_plan WHERE plan_id = ?`,
		planID,
	).Error; err != nil {
		return err
	}

	for _, item := range items {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO subscription_feature_plan (plan_id, feature_id, value, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			planID,
			item.FeatureID,
			item.Value,
			item.SortOrder,
			now,
			now,
		).Error; err != nil {
			return err
		}
	}

	return nil
}
