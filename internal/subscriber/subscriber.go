package subscriber

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Subscriber is implemented by any entity that can own a subscription.
type Subscriber interface {
	SubscriberRef() domain.OwnerRef
}

// Owner adapts a bare owner reference into a Subscriber.
type Owner domain.OwnerRef

func (o Owner) SubscriberRef() domain.OwnerRef { return domain.OwnerRef(o) }

// As builds a Subscriber of the given type. An empty type takes the configured default.
func As(ownerType string, id snowflake.ID) Subscriber {
	return Owner{Type: ownerType, ID: id}
}

type Config struct {
	DefaultType string
}

type Params struct {
	fx.In

	Config  Config
	Service domain.Service
	Log     *zap.Logger
}

// Capability gives subscriber entities access to their subscription.
type Capability struct {
	cfg Config
	svc domain.Service
	log *zap.Logger
}

func New(p Params) *Capability {
	return &Capability{
		cfg: Config{DefaultType: strings.TrimSpace(p.Config.DefaultType)},
		svc: p.Service,
		log: p.Log.Named("subscriber"),
	}
}

// For binds entity to the capability. A nil entity yields a binding whose
// calls fail with ErrInvalidOwner.
func (c *Capability) For(entity Subscriber) *Binding {
	var owner domain.OwnerRef
	if entity != nil {
		owner = entity.SubscriberRef()
	}
	owner.Type = strings.TrimSpace(owner.Type)
	if owner.Type == "" {
		owner.Type = c.cfg.DefaultType
	}
	return &Binding{svc: c.svc, log: c.log, owner: owner}
}

type Binding struct {
	svc   domain.Service
	log   *zap.Logger
	owner domain.OwnerRef
}

func (b *Binding) Owner() domain.OwnerRef { return b.owner }

// Subscription returns the owner's latest subscription, or nil when it has none.
func (b *Binding) Subscription(ctx context.Context) (*domain.Subscription, error) {
	sub, err := b.svc.FindByOwner(ctx, b.owner)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (b *Binding) Subscribed(ctx context.Context) (bool, error) {
	return b.svc.Subscribed(ctx, b.owner)
}

// Subscribe accepts a Plan, *Plan, PlanRef, integer id or plan name.
func (b *Binding) Subscribe(ctx context.Context, plan any, startsAt, endsAt *time.Time) (*domain.Subscription, error) {
	ref, err := domain.ParsePlanRef(plan)
	if err != nil {
		b.log.Debug("subscribe rejected", zap.String("owner", b.owner.String()), zap.Error(err))
		return nil, err
	}
	return b.svc.Subscribe(ctx, domain.SubscribeRequest{
		Owner:    b.owner,
		Plan:     ref,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	})
}
