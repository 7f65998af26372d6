package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Attach(ctx context.Context, req AttachRequest) (*Assignment, error)
	Detach(ctx context.Context, planID, featureID snowflake.ID) error
	ListByPlan(ctx context.Context, planID snowflake.ID) ([]Assignment, error)
}

type AttachRequest struct {
	PlanID    snowflake.ID
	FeatureID snowflake.ID
	Value     string
	SortOrder *int16
}

var (
	ErrInvalidPlanID    = errors.New("invalid_plan_id")
	ErrInvalidFeatureID = errors.New("invalid_feature_id")
	ErrInvalidValue     = errors.New("invalid_feature_value")
	ErrNotAttached      = errors.New("feature_not_attached")
)
