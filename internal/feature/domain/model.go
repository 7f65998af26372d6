package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const MaxNameLength = 32

// Feature is a capability that plans grant through the plan-feature pivot.
type Feature struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Name        string       `gorm:"type:varchar(32);not null;uniqueIndex"`
	Fullname    *string      `gorm:"type:varchar(255)"`
	Description *string      `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Feature) TableName() string { return "subscription_features" }
