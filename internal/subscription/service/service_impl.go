package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/lock"
	obslogger "github.com/smallbiznis/entitlements/internal/observability/logger"
	"github.com/smallbiznis/entitlements/internal/observability/metrics"
	"github.com/smallbiznis/entitlements/internal/observability/tracing"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
	planfeaturedomain "github.com/smallbiznis/entitlements/internal/planfeature/domain"
	subscriptiondomain "github.com/smallbiznis/entitlements/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/entitlements/internal/usage/domain"
	"github.com/smallbiznis/entitlements/pkg/db"
	"github.com/smallbiznis/entitlements/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	keySubscribeLock        = "subscribe:%s:%d:%d"
	defaultSubscribeLockTTL = 10 * time.Second
	lockRetryInterval       = 25 * time.Millisecond
)

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	tracer trace.Tracer

	genID     *snowflake.Node
	clock     clock.Clock
	repo      subscriptiondomain.Repository
	planRepo  plandomain.Repository
	pivotRepo planfeaturedomain.Repository
	usageRepo usagedomain.Repository
	locker    lock.Locker
	metrics   *metrics.Metrics
	opts      subscriptiondomain.Options
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      subscriptiondomain.Repository
	PlanRepo  plandomain.Repository
	PivotRepo planfeaturedomain.Repository
	UsageRepo usagedomain.Repository
	Options   subscriptiondomain.Options
	Locker    lock.Locker      `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	opts := p.Options
	if opts.SubscribeLockTTL <= 0 {
		opts.SubscribeLockTTL = defaultSubscribeLockTTL
	}
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("subscription.service"),
		tracer: tracing.Tracer("subscription.service"),

		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		planRepo:  p.PlanRepo,
		pivotRepo: p.PivotRepo,
		usageRepo: p.UsageRepo,
		locker:    p.Locker,
		metrics:   p.Metrics,
		opts:      opts,
	}
}

func (s *Service) Subscribe(ctx context.Context, req subscriptiondomain.SubscribeRequest) (*subscriptiondomain.Subscription, error) {
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	ctx, span := s.tracer.Start(ctx, "subscription.Subscribe")
	defer span.End()

	owner, err := s.normalizeOwner(req.Owner)
	if err != nil {
		return nil, err
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("owner_type", owner.Type))

	log := obslogger.WithOwner(obslogger.WithContext(ctx, s.log), owner.Type, owner.ID.String())

	sub, err := s.subscribe(ctx, owner, req)
	if err != nil {
		s.metrics.RecordSubscribe(ctx, owner.Type, subscribeResult(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("subscribe failed", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordSubscribe(ctx, owner.Type, "ok")
	log.Info("subscribed",
		zap.Int64("subscription_id", sub.ID.Int64()),
		zap.Int64("plan_id", sub.PlanID.Int64()),
		zap.Timep("ends_at", sub.EndsAt),
	)
	return sub, nil
}

func (s *Service) subscribe(ctx context.Context, owner subscriptiondomain.OwnerRef, req subscriptiondomain.SubscribeRequest) (*subscriptiondomain.Subscription, error) {
	plan, err := s.resolvePlan(ctx, s.db, req.Plan)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		key := fmt.Sprintf(keySubscribeLock, owner.Type, owner.ID.Int64(), plan.ID.Int64())
		token, ok, err := s.acquire(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("subscribe lock: %w", err)
		}
		if ok {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("release subscribe lock", zap.String("key", key), zap.Error(err))
				}
			}()
		} else {
			s.log.Warn("subscribe lock wait timed out, relying on unique index", zap.String("key", key))
		}
	}

	var out *subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		sub := &subscriptiondomain.Subscription{
			ID:          s.genID.Generate(),
			OwnerType:   owner.Type,
			OwnerID:     owner.ID,
			TrialEndsAt: req.TrialEndsAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := sub.Renew(*plan, now, req.StartsAt, req.EndsAt); err != nil {
			return err
		}

		if err := s.repo.Insert(ctx, tx, sub); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return subscriptiondomain.ErrAlreadySubscribed
			}
			return fmt.Errorf("insert subscription: %w", err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// acquire waits up to the lock TTL for key. It reports false without an error
// when the wait times out; the caller then proceeds and the unique index on
// (owner, plan) decides the outcome.
func (s *Service) acquire(ctx context.Context, key string) (string, bool, error) {
	deadline := time.NewTimer(s.opts.SubscribeLockTTL)
	defer deadline.Stop()

	for {
		token, ok, err := s.locker.TryLock(ctx, key, s.opts.SubscribeLockTTL)
		if err != nil || ok {
			return token, ok, err
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-deadline.C:
			return "", false, nil
		case <-time.After(lockRetryInterval):
		}
	}
}

func subscribeResult(err error) string {
	switch {
	case errors.Is(err, subscriptiondomain.ErrAlreadySubscribed):
		return "already_subscribed"
	case errors.Is(err, subscriptiondomain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if id == 0 {
		return nil, subscriptiondomain.ErrInvalidSubscription
	}
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// FindByOwner returns the most recently created subscription of owner.
func (s *Service) FindByOwner(ctx context.Context, owner subscriptiondomain.OwnerRef) (*subscriptiondomain.Subscription, error) {
	owner, err := s.normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.FindLatestByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) ListByOwner(ctx context.Context, owner subscriptiondomain.OwnerRef) ([]subscriptiondomain.Subscription, error) {
	owner, err := s.normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, s.db, owner)
}

func (s *Service) Subscribed(ctx context.Context, owner subscriptiondomain.OwnerRef) (bool, error) {
	owner, err := s.normalizeOwner(owner)
	if err != nil {
		return false, err
	}
	return s.repo.ExistsByOwner(ctx, s.db, owner)
}

// Renew reloads the subscription's plan and opens a new window in memory.
// Call Save to persist it.
func (s *Service) Renew(ctx context.Context, sub *subscriptiondomain.Subscription, startsAt, endsAt *time.Time) error {
	if sub == nil {
		return subscriptiondomain.ErrInvalidSubscription
	}
	plan, err := s.planRepo.FindByID(ctx, s.db, sub.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return subscriptiondomain.ErrPlanNotFound
	}
	return sub.Renew(*plan, s.clock.Now(), startsAt, endsAt)
}

func (s *Service) Save(ctx context.Context, sub *subscriptiondomain.Subscription) error {
	if sub == nil || sub.ID == 0 {
		return subscriptiondomain.ErrInvalidSubscription
	}
	sub.UpdatedAt = s.clock.Now()

	updated, err := s.repo.Update(ctx, s.db, sub)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return subscriptiondomain.ErrAlreadySubscribed
		}
		return fmt.Errorf("update subscription: %w", err)
	}
	if !updated {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	return nil
}

// Cancel stamps the cancellation time and persists it immediately.
func (s *Service) Cancel(ctx context.Context, sub *subscriptiondomain.Subscription) error {
	if sub == nil || sub.ID == 0 {
		return subscriptiondomain.ErrInvalidSubscription
	}

	previous := sub.CanceledAt
	now := s.clock.Now()
	sub.CanceledAt = &now
	if err := s.Save(ctx, sub); err != nil {
		sub.CanceledAt = previous
		return err
	}

	s.metrics.RecordCancel(ctx, sub.OwnerType)
	obslogger.WithContext(ctx, s.log).Info("subscription canceled",
		zap.Int64("subscription_id", sub.ID.Int64()),
		zap.String("owner", sub.Owner().String()),
	)
	return nil
}

func (s *Service) normalizeOwner(owner subscriptiondomain.OwnerRef) (subscriptiondomain.OwnerRef, error) {
	owner.Type = strings.TrimSpace(owner.Type)
	if owner.Type == "" {
		owner.Type = s.opts.DefaultOwnerType
	}
	if owner.Type == "" || owner.ID == 0 {
		return subscriptiondomain.OwnerRef{}, subscriptiondomain.ErrInvalidOwner
	}
	return owner, nil
}

func (s *Service) resolvePlan(ctx context.Context, tx *gorm.DB, ref subscriptiondomain.PlanRef) (*plandomain.Plan, error) {
	var (
		plan *plandomain.Plan
		err  error
	)
	if id, ok := ref.ID(); ok {
		plan, err = s.planRepo.FindByID(ctx, tx, id)
	} else if name, ok := ref.Name(); ok {
		plan, err = s.planRepo.FindByName(ctx, tx, strings.TrimSpace(name))
	} else {
		return nil, subscriptiondomain.ErrInvalidArgumentType
	}
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, subscriptiondomain.ErrPlanNotFound
	}
	return plan, nil
}
