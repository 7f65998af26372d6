package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	featuredomain "github.com/smallbiznis/entitlements/internal/feature/domain"
)

// PlanFeature is the pivot row granting a feature to a plan. Value is stored as text
// and read either as a boolean flag or a numeric quota.
type PlanFeature struct {
	PlanID    snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_feature_plan,priority:1"`
	FeatureID snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_feature_plan,priority:2"`
	Value     string       `gorm:"type:varchar(255);not null"`
	SortOrder *int16       `gorm:"type:smallint"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (PlanFeature) TableName() string { return "subscription_feature_plan" }

// Assignment is a feature joined with the pivot attributes of one plan.
type Assignment struct {
	PlanID      snowflake.ID
	FeatureID   snowflake.ID
	Name        string
	Fullname    *string
	Description *string
	Value       string
	SortOrder   *int16
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Assignment) Feature() featuredomain.Feature {
	return featuredomain.Feature{
		ID:          a.FeatureID,
		Name:        a.Name,
		Fullname:    a.Fullname,
		Description: a.Description,
	}
}
