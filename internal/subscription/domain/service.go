package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
	planfeaturedomain "github.com/smallbiznis/entitlements/internal/planfeature/domain"
	usagedomain "github.com/smallbiznis/entitlements/internal/usage/domain"
)

// Service manages subscriptions and answers entitlement questions about them.
// Feature queries report an unusable subscription or an unattached feature as
// absent: the zero value, false, and a nil error.
type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscription, error)
	Get(ctx context.Context, id snowflake.ID) (*Subscription, error)
	FindByOwner(ctx context.Context, owner OwnerRef) (*Subscription, error)
	ListByOwner(ctx context.Context, owner OwnerRef) ([]Subscription, error)
	Subscribed(ctx context.Context, owner OwnerRef) (bool, error)

	Renew(ctx context.Context, sub *Subscription, startsAt, endsAt *time.Time) error
	Save(ctx context.Context, sub *Subscription) error
	Cancel(ctx context.Context, sub *Subscription) error

	FeatureExists(ctx context.Context, sub *Subscription, ref FeatureRef) (bool, error)
	GetFeature(ctx context.Context, sub *Subscription, ref FeatureRef) (*planfeaturedomain.Assignment, bool, error)
	FeatureValue(ctx context.Context, sub *Subscription, ref FeatureRef) (string, bool, error)
	FeatureConsumed(ctx context.Context, sub *Subscription, ref FeatureRef) (uint16, bool, error)
	FeatureRemains(ctx context.Context, sub *Subscription, ref FeatureRef) (decimal.Decimal, bool, error)
	FeatureActive(ctx context.Context, sub *Subscription, ref FeatureRef) (bool, error)
	FeatureUsage(ctx context.Context, sub *Subscription, ref FeatureRef) (*usagedomain.Usage, bool, error)
}

type SubscribeRequest struct {
	Owner       OwnerRef
	Plan        PlanRef
	StartsAt    *time.Time
	EndsAt      *time.Time
	TrialEndsAt *time.Time
}

// Options are fixed at construction time.
type Options struct {
	// DefaultOwnerType fills OwnerRef.Type when a caller leaves it empty.
	DefaultOwnerType string
	// ActiveRequiresUsage makes FeatureActive false until a usage row exists.
	ActiveRequiresUsage bool
	// SubscribeLockTTL bounds how long Subscribe holds, and waits for, the owner and plan lock.
	SubscribeLockTTL time.Duration
}

var (
	ErrNotFound            = errors.New("not_found")
	ErrInvalidArgumentType = errors.New("invalid_argument_type")
	ErrAlreadySubscribed   = errors.New("already_subscribed")
	ErrInvalidFeatureValue = errors.New("invalid_feature_value")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidSubscription = errors.New("invalid_subscription")

	ErrInvalidInterval      = fmt.Errorf("subscription_period: %w", plandomain.ErrInvalidInterval)
	ErrPlanNotFound         = fmt.Errorf("%w: %w", ErrNotFound, plandomain.ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("%w: subscription_not_found", ErrNotFound)
)
