package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, feature *Feature) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Feature, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Feature, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Feature, error)
	Update(ctx context.Context, db *gorm.DB, feature *Feature) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
