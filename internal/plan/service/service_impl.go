package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/plan/domain"
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
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Plan, error) {
	fullname := strings.TrimSpace(req.Fullname)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = slug.Make(fullname)
	}
	if name == "" || len(name) > domain.MaxNameLength {
		return nil, domain.ErrInvalidName
	}

	interval := domain.Interval(strings.ToLower(strings.TrimSpace(string(req.Interval))))
	if interval == "" {
		interval = domain.IntervalMonth
	}
	if !interval.Valid() {
		return nil, domain.ErrInvalidInterval
	}

	count := req.IntervalCount
	if count == 0 {
		count = 1
	}
	if count < 1 || count > 32767 {
		return nil, domain.ErrInvalidIntervalCount
	}

	price, err := normalizePrice(req.Price)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan := &domain.Plan{
		ID:            s.genID.Generate(),
		Name:          name,
		Fullname:      optionalString(fullname),
		Description:   optionalString(req.Description),
		Price:         price,
		Interval:      interval,
		IntervalCount: int16(count),
		SortOrder:     req.SortOrder,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	s.log.Debug("plan created", zap.String("plan", plan.Name), zap.Int64("plan_id", plan.ID.Int64()))
	return plan, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Plan, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	plan, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	plan, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Plan, error) {
	if req.Interval != nil && !req.Interval.Valid() {
		return nil, domain.ErrInvalidInterval
	}
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Plan, error) {
	plan, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Fullname != nil {
		plan.Fullname = optionalString(*req.Fullname)
	}
	if req.Description != nil {
		plan.Description = optionalString(*req.Description)
	}
	if req.Price != nil {
		price, err := normalizePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		plan.Price = price
	}
	if req.Interval != nil {
		if !req.Interval.Valid() {
			return nil, domain.ErrInvalidInterval
		}
		plan.Interval = *req.Interval
	}
	if req.IntervalCount != nil {
		if *req.IntervalCount < 1 || *req.IntervalCount > 32767 {
			return nil, domain.ErrInvalidIntervalCount
		}
		plan.IntervalCount = int16(*req.IntervalCount)
	}
	if req.SortOrder != nil {
		plan.SortOrder = req.SortOrder
	}
	plan.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, id)
}

func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	price = price.Round(2)
	if price.IsNegative() || price.GreaterThan(domain.MaxPrice) {
		return decimal.Decimal{}, domain.ErrInvalidPrice
	}
	return price, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
