package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Plan, error)
	Get(ctx context.Context, id snowflake.ID) (*Plan, error)
	GetByName(ctx context.Context, name string) (*Plan, error)
	List(ctx context.Context, req ListRequest) ([]Plan, error)
	Update(ctx context.Context, req UpdateRequest) (*Plan, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	Name          string
	Fullname      string
	Description   string
	Price         decimal.Decimal
	Interval      Interval
	IntervalCount int
	SortOrder     *int16
}

type UpdateRequest struct {
	ID            snowflake.ID
	Fullname      *string
	Description   *string
	Price         *decimal.Decimal
	Interval      *Interval
	IntervalCount *int
	SortOrder     *int16
}

type ListRequest struct {
	Interval *Interval
	Limit    int
}

var (
	ErrInvalidID            = errors.New("invalid_plan_id")
	ErrInvalidName          = errors.New("invalid_plan_name")
	ErrInvalidInterval      = errors.New("invalid_interval")
	ErrInvalidIntervalCount = errors.New("invalid_interval_count")
	ErrInvalidPrice         = errors.New("invalid_price")
	ErrDuplicateName        = errors.New("duplicate_plan_name")
	ErrNotFound             = errors.New("plan_not_found")
)
