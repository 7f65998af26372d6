// Package domain contains the subscription entity and the entitlement rules evaluated against it.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
)

// OwnerRef identifies the subscriber of a subscription by entity type and id.
type OwnerRef struct {
	Type string
	ID   snowflake.ID
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%d", o.Type, o.ID.Int64())
}

// Subscription binds an owner to a plan for a time window. Canceled and Ended are
// derived from the timestamps and may both hold at once.
type Subscription struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OwnerType   string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_subscription_subscriptions_owner_plan,priority:1"`
	OwnerID     snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_subscriptions_owner_plan,priority:2"`
	PlanID      snowflake.ID `gorm:"not null;uniqueIndex:ux_subscription_subscriptions_owner_plan,priority:3"`
	TrialEndsAt *time.Time
	StartsAt    *time.Time
	EndsAt      *time.Time
	CanceledAt  *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Subscription) TableName() string { return "subscription_subscriptions" }

func (s Subscription) Owner() OwnerRef {
	return OwnerRef{Type: s.OwnerType, ID: s.OwnerID}
}

// Renew binds the subscription to plan and opens a new window. startsAt defaults to now
// and endsAt to one billing period after startsAt. The change is not persisted.
func (s *Subscription) Renew(plan plandomain.Plan, now time.Time, startsAt, endsAt *time.Time) error {
	start := now
	if startsAt != nil {
		start = *startsAt
	}

	var end time.Time
	if endsAt != nil {
		end = *endsAt
	} else {
		computed, err := plan.PeriodEnd(start)
		if errors.Is(err, plandomain.ErrInvalidInterval) {
			return ErrInvalidInterval
		}
		if err != nil {
			return err
		}
		end = computed
	}
	if end.Before(start) {
		return ErrInvalidPeriod
	}

	s.PlanID = plan.ID
	s.StartsAt = &start
	s.EndsAt = &end
	s.CanceledAt = nil
	return nil
}

func (s Subscription) Canceled() bool {
	return s.CanceledAt != nil
}

// Ended reports whether now has reached EndsAt. The boundary instant counts as ended.
func (s Subscription) Ended(now time.Time) bool {
	if s.EndsAt == nil {
		return false
	}
	return !now.Before(*s.EndsAt)
}

func (s Subscription) Usable(now time.Time) bool {
	return !s.Ended(now) && !s.Canceled()
}
