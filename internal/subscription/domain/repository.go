package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindLatestByOwner(ctx context.Context, db *gorm.DB, owner OwnerRef) (*Subscription, error)
	ExistsByOwner(ctx context.Context, db *gorm.DB, owner OwnerRef) (bool, error)
	ListByOwner(ctx context.Context, db *gorm.DB, owner OwnerRef) ([]Subscription, error)
}
