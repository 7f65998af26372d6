package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/observability/metrics"
	"github.com/smallbiznis/entitlements/internal/usage/domain"
	"github.com/smallbiznis/entitlements/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("usage.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Usage, error) {
	if req.SubscriptionID == 0 {
		return nil, domain.ErrInvalidSubscriptionID
	}
	if req.FeatureID == 0 {
		return nil, domain.ErrInvalidFeatureID
	}
	if !req.Incremental && req.Amount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	out, err := s.record(ctx, req)
	if err != nil && db.IsDuplicateKeyErr(err) {
		// A concurrent writer created the row first; apply on top of it.
		out, err = s.record(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUsage(ctx, "record")
	return out, nil
}

func (s *Service) record(ctx context.Context, req domain.RecordRequest) (*domain.Usage, error) {
	var out *domain.Usage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		current, err := s.repo.Find(ctx, tx, req.SubscriptionID, req.FeatureID)
		if err != nil {
			return err
		}

		if current == nil {
			used, err := nextUsed(0, req)
			if err != nil {
				return err
			}
			out = &domain.Usage{
				ID:             s.genID.Generate(),
				SubscriptionID: req.SubscriptionID,
				FeatureID:      req.FeatureID,
				Used:           used,
				ValidUntil:     req.ValidUntil,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			return s.repo.Insert(ctx, tx, out)
		}

		used, err := nextUsed(int(current.Used), req)
		if err != nil {
			return err
		}
		current.Used = used
		if req.ValidUntil != nil {
			current.ValidUntil = req.ValidUntil
		}
		current.UpdatedAt = now
		out = current
		return s.repo.Update(ctx, tx, current)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nextUsed(current int, req domain.RecordRequest) (uint16, error) {
	next := req.Amount
	if req.Incremental {
		next = current + req.Amount
	}
	if next < 0 || next > domain.MaxUsed {
		return 0, domain.ErrInvalidAmount
	}
	return uint16(next), nil
}

func (s *Service) Reduce(ctx context.Context, subscriptionID, featureID snowflake.ID, amount int) (*domain.Usage, error) {
	if subscriptionID == 0 {
		return nil, domain.ErrInvalidSubscriptionID
	}
	if featureID == 0 {
		return nil, domain.ErrInvalidFeatureID
	}
	if amount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	var out *domain.Usage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.Find(ctx, tx, subscriptionID, featureID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		used := int(current.Used) - amount
		if used < 0 {
			used = 0
		}
		current.Used = uint16(used)
		current.UpdatedAt = s.clock.Now()
		out = current
		return s.repo.Update(ctx, tx, current)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUsage(ctx, "reduce")
	return out, nil
}

func (s *Service) Clear(ctx context.Context, subscriptionID snowflake.ID) error {
	if subscriptionID == 0 {
		return domain.ErrInvalidSubscriptionID
	}
	removed, err := s.repo.DeleteBySubscription(ctx, s.db, subscriptionID)
	if err != nil {
		return fmt.Errorf("clear usage: %w", err)
	}

	s.log.Debug("usage cleared",
		zap.Int64("subscription_id", subscriptionID.Int64()),
		zap.Int64("rows", removed),
	)
	s.metrics.RecordUsage(ctx, "clear")
	return nil
}

func (s *Service) ListBySubscription(ctx context.Context, subscriptionID snowflake.ID) ([]domain.Usage, error) {
	if subscriptionID == 0 {
		return nil, domain.ErrInvalidSubscriptionID
	}
	return s.repo.ListBySubscription(ctx, s.db, subscriptionID)
}
