package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/clock"
	featuredomain "github.com/smallbiznis/entitlements/internal/feature/domain"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
	planfeaturedomain "github.com/smallbiznis/entitlements/internal/planfeature/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Repo        planfeaturedomain.Repository
	PlanRepo    plandomain.Repository
	FeatureRepo featuredomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	repo        planfeaturedomain.Repository
	planRepo    plandomain.Repository
	featureRepo featuredomain.Repository
}

func New(p Params) planfeaturedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("planfeature.service"),
		clock:       p.Clock,
		repo:        p.Repo,
		planRepo:    p.PlanRepo,
		featureRepo: p.FeatureRepo,
	}
}

func (s *Service) Attach(ctx context.Context, req planfeaturedomain.AttachRequest) (*planfeaturedomain.Assignment, error) {
	if req.PlanID == 0 {
		return nil, planfeaturedomain.ErrInvalidPlanID
	}
	if req.FeatureID == 0 {
		return nil, planfeaturedomain.ErrInvalidFeatureID
	}
	value := strings.TrimSpace(req.Value)
	if value == "" || len(value) > 255 {
		return nil, planfeaturedomain.ErrInvalidValue
	}

	var out *planfeaturedomain.Assignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePlan(ctx, tx, req.PlanID); err != nil {
			return err
		}
		feature, err := s.featureRepo.FindByID(ctx, tx, req.FeatureID)
		if err != nil {
			return err
		}
		if feature == nil {
			return featuredomain.ErrNotFound
		}

		now := s.clock.Now()
		if err := s.repo.Upsert(ctx, tx, &planfeaturedomain.PlanFeature{
			PlanID:    req.PlanID,
			FeatureID: req.FeatureID,
			Value:     value,
			SortOrder: req.SortOrder,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("attach feature: %w", err)
		}

		out, err = s.repo.FindByID(ctx, tx, req.PlanID, req.FeatureID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("feature attached",
		zap.Int64("plan_id", req.PlanID.Int64()),
		zap.Int64("feature_id", req.FeatureID.Int64()),
	)
	return out, nil
}

func (s *Service) Detach(ctx context.Context, planID, featureID snowflake.ID) error {
	if planID == 0 {
		return planfeaturedomain.ErrInvalidPlanID
	}
	if featureID == 0 {
		return planfeaturedomain.ErrInvalidFeatureID
	}

	removed, err := s.repo.Delete(ctx, s.db, planID, featureID)
	if err != nil {
		return err
	}
	if !removed {
		return planfeaturedomain.ErrNotAttached
	}
	return nil
}

func (s *Service) ListByPlan(ctx context.Context, planID snowflake.ID) ([]planfeaturedomain.Assignment, error) {
	if planID == 0 {
		return nil, planfeaturedomain.ErrInvalidPlanID
	}
	if err := s.ensurePlan(ctx, s.db, planID); err != nil {
		return nil, err
	}
	return s.repo.ListByPlan(ctx, s.db, planID)
}

func (s *Service) ensurePlan(ctx context.Context, db *gorm.DB, planID snowflake.ID) error {
	plan, err := s.planRepo.FindByID(ctx, db, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return plandomain.ErrNotFound
	}
	return nil
}
