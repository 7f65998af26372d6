package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/feature/domain"
	"github.com/smallbiznis/entitlements/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("feature.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Feature, error) {
	filter := domain.ListRequest{
		Name:    strings.TrimSpace(req.Name),
		IDs:     req.IDs,
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Feature, error) {
	fullname := strings.TrimSpace(req.Fullname)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = slug.Make(fullname)
	}
	if name == "" || len(name) > domain.MaxNameLength {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	record := &domain.Feature{
		ID:          s.genID.Generate(),
		Name:        name,
		Fullname:    optionalString(fullname),
		Description: optionalString(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("insert feature: %w", err)
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Feature, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Feature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	item, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Feature, error) {
	item, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Fullname != nil {
		item.Fullname = optionalString(*req.Fullname)
	}
	if req.Description != nil {
		item.Description = optionalString(*req.Description)
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, id)
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
