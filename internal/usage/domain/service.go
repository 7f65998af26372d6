package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Usage, error)
	Reduce(ctx context.Context, subscriptionID, featureID snowflake.ID, amount int) (*Usage, error)
	Clear(ctx context.Context, subscriptionID snowflake.ID) error
	ListBySubscription(ctx context.Context, subscriptionID snowflake.ID) ([]Usage, error)
}

// RecordRequest sets the counter to Amount, or adds Amount to it when Incremental.
type RecordRequest struct {
	SubscriptionID snowflake.ID
	FeatureID      snowflake.ID
	Amount         int
	Incremental    bool
	ValidUntil     *time.Time
}

var (
	ErrInvalidSubscriptionID = errors.New("invalid_subscription_id")
	ErrInvalidFeatureID      = errors.New("invalid_feature_id")
	ErrInvalidAmount         = errors.New("invalid_usage_amount")
	ErrNotFound              = errors.New("usage_not_found")
)
