package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/config"
	featuredomain "github.com/smallbiznis/entitlements/internal/feature/domain"
	"github.com/smallbiznis/entitlements/internal/observability/metrics"
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
	GenID       *snowflake.Node
	Clock       clock.Clock
	PlanRepo    plandomain.Repository
	FeatureRepo featuredomain.Repository
	PivotRepo   planfeaturedomain.Repository
	Metrics     *metrics.Metrics `optional:"true"`
}

// Syncer makes the database catalog match a declared Catalog. Plans and
// features missing from the declaration are left alone; the feature list of a
// declared plan is replaced as a whole.
type Syncer struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	planRepo    plandomain.Repository
	featureRepo featuredomain.Repository
	pivotRepo   planfeaturedomain.Repository
	metrics     *metrics.Metrics
}

func New(p Params) *Syncer {
	return &Syncer{
		db:          p.DB,
		log:         p.Log.Named("catalog.sync"),
		genID:       p.GenID,
		clock:       p.Clock,
		planRepo:    p.PlanRepo,
		featureRepo: p.FeatureRepo,
		pivotRepo:   p.PivotRepo,
		metrics:     p.Metrics,
	}
}

// Sync applies catalog in a single transaction.
func (s *Syncer) Sync(ctx context.Context, catalog config.Catalog) error {
	if err := config.ValidateCatalog(catalog); err != nil {
		s.metrics.RecordCatalogSync(ctx, "invalid")
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		features := make(map[string]snowflake.ID, len(catalog.Features))
		for _, item := range catalog.Features {
			feature, err := s.ensureFeatureTx(ctx, tx, item)
			if err != nil {
				return err
			}
			features[feature.Name] = feature.ID
		}

		for _, item := range catalog.Plans {
			plan, err := s.ensurePlanTx(ctx, tx, item)
			if err != nil {
				return err
			}
			if err := s.replaceFeaturesTx(ctx, tx, plan, item.Features, features); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordCatalogSync(ctx, "error")
		return err
	}

	s.metrics.RecordCatalogSync(ctx, "ok")
	s.log.Info("catalog synced",
		zap.Int("features", len(catalog.Features)),
		zap.Int("plans", len(catalog.Plans)),
	)
	return nil
}

func (s *Syncer) ensureFeatureTx(ctx context.Context, tx *gorm.DB, item config.CatalogFeature) (*featuredomain.Feature, error) {
	name := strings.TrimSpace(item.Name)
	if len(name) > featuredomain.MaxNameLength {
		return nil, fmt.Errorf("feature %q: %w", name, featuredomain.ErrInvalidName)
	}

	now := s.clock.Now()
	existing, err := s.featureRepo.FindByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Fullname = optionalString(item.Fullname)
		existing.Description = optionalString(item.Description)
		existing.UpdatedAt = now
		if err := s.featureRepo.Update(ctx, tx, existing); err != nil {
			return nil, fmt.Errorf("update feature %q: %w", name, err)
		}
		return existing, nil
	}

	feature := &featuredomain.Feature{
		ID:          s.genID.Generate(),
		Name:        name,
		Fullname:    optionalString(item.Fullname),
		Description: optionalString(item.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.featureRepo.Create(ctx, tx, feature); err != nil {
		return nil, fmt.Errorf("create feature %q: %w", name, err)
	}
	return feature, nil
}

func (s *Syncer) ensurePlanTx(ctx context.Context, tx *gorm.DB, item config.CatalogPlan) (*plandomain.Plan, error) {
	name := strings.TrimSpace(item.Name)
	if len(name) > plandomain.MaxNameLength {
		return nil, fmt.Errorf("plan %q: %w", name, plandomain.ErrInvalidName)
	}

	price, err := parsePrice(item.Price)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", name, err)
	}

	interval := plandomain.Interval(strings.ToLower(strings.TrimSpace(item.Interval)))
	if interval == "" {
		interval = plandomain.IntervalMonth
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("plan %q: %w", name, plandomain.ErrInvalidInterval)
	}

	count := item.IntervalCount
	if count == 0 {
		count = 1
	}
	if count < 1 || count > math.MaxInt16 {
		return nil, fmt.Errorf("plan %q: %w", name, plandomain.ErrInvalidIntervalCount)
	}

	now := s.clock.Now()
	plan, err := s.planRepo.FindByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	created := plan == nil
	if created {
		plan = &plandomain.Plan{ID: s.genID.Generate(), Name: name, CreatedAt: now}
	}
	plan.Fullname = optionalString(item.Fullname)
	plan.Description = optionalString(item.Description)
	plan.Price = price
	plan.Interval = interval
	plan.IntervalCount = int16(count)
	plan.SortOrder = item.SortOrder
	plan.UpdatedAt = now

	if created {
		err = s.planRepo.Insert(ctx, tx, plan)
	} else {
		err = s.planRepo.Update(ctx, tx, plan)
	}
	if err != nil {
		return nil, fmt.Errorf("save plan %q: %w", name, err)
	}
	return plan, nil
}

func (s *Syncer) replaceFeaturesTx(ctx context.Context, tx *gorm.DB, plan *plandomain.Plan, items []config.CatalogPlanFeature, features map[string]snowflake.ID) error {
	pivots := make([]planfeaturedomain.PlanFeature, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		featureID, ok := features[name]
		if !ok {
			return fmt.Errorf("plan %q: %w: %s", plan.Name, featuredomain.ErrNotFound, name)
		}
		value := strings.TrimSpace(item.Value)
		if value == "" {
			return fmt.Errorf("plan %q feature %q: %w", plan.Name, name, planfeaturedomain.ErrInvalidValue)
		}
		pivots = append(pivots, planfeaturedomain.PlanFeature{
			PlanID:    plan.ID,
			FeatureID: featureID,
			Value:     value,
			SortOrder: item.SortOrder,
		})
	}
	if err := s.pivotRepo.Replace(ctx, tx, plan.ID, pivots, s.clock.Now()); err != nil {
		return fmt.Errorf("replace features of plan %q: %w", plan.Name, err)
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, plandomain.ErrInvalidPrice
	}
	price = price.Round(2)
	if price.IsNegative() || price.GreaterThan(plandomain.MaxPrice) {
		return decimal.Decimal{}, plandomain.ErrInvalidPrice
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
