package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, subscriptionID, featureID snowflake.ID) (*Usage, error)
	Insert(ctx context.Context, db *gorm.DB, usage *Usage) error
	Update(ctx context.Context, db *gorm.DB, usage *Usage) error
	ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Usage, error)
	DeleteBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error)
}
