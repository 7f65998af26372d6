package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, item *PlanFeature) error
	Delete(ctx context.Context, db *gorm.DB, planID, featureID snowflake.ID) (bool, error)
	ListByPlan(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]Assignment, error)
	FindByID(ctx context.Context, db *gorm.DB, planID, featureID snowflake.ID) (*Assignment, error)
	FindByName(ctx context.Context, db *gorm.DB, planID snowflake.ID, featureName string) (*Assignment, error)
	Replace(ctx context.Context, db *gorm.DB, planID snowflake.ID, items []PlanFeature, now time.Time) error
}
