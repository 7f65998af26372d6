// Package domain contains the per-subscription feature usage counters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MaxUsed is the largest value the unsigned smallint column holds.
const MaxUsed = 65535

// Usage counts how much of a metered feature a subscription has consumed.
type Usage struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SubscriptionID snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_usages_subscription_feature,priority:1"`
	FeatureID      snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_usages_subscription_feature,priority:2"`
	Used           uint16       `gorm:"type:smallint;not null;default:0"`
	ValidUntil     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Usage) TableName() string { return "subscription_usages" }
