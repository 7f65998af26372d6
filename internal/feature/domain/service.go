package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Feature, error)
	Get(ctx context.Context, id snowflake.ID) (*Feature, error)
	GetByName(ctx context.Context, name string) (*Feature, error)
	List(ctx context.Context, req ListRequest) ([]Feature, error)
	Update(ctx context.Context, req UpdateRequest) (*Feature, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

// ListRequest filters by exact name and, when IDs is set, by id.
type ListRequest struct {
	Name    string
	IDs     []snowflake.ID
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Name        string
	Fullname    string
	Description string
}

type UpdateRequest struct {
	ID          snowflake.ID
	Fullname    *string
	Description *string
}

var (
	ErrInvalidID     = errors.New("invalid_feature_id")
	ErrInvalidName   = errors.New("invalid_feature_name")
	ErrDuplicateName = errors.New("duplicate_feature_name")
	ErrNotFound      = errors.New("feature_not_found")
)
