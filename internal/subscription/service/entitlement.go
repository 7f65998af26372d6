package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	planfeaturedomain "github.com/smallbiznis/entitlements/internal/planfeature/domain"
	subscriptiondomain "github.com/smallbiznis/entitlements/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/entitlements/internal/usage/domain"
)

func (s *Service) FeatureExists(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (bool, error) {
	_, ok, err := s.assignment(ctx, sub, ref)
	s.recordCheck(ctx, "feature_exists", ok, err)
	return ok, err
}

func (s *Service) GetFeature(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (*planfeaturedomain.Assignment, bool, error) {
	item, ok, err := s.assignment(ctx, sub, ref)
	s.recordCheck(ctx, "get_feature", ok, err)
	return item, ok, err
}

func (s *Service) FeatureValue(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (string, bool, error) {
	item, ok, err := s.assignment(ctx, sub, ref)
	s.recordCheck(ctx, "feature_value", ok, err)
	if err != nil || !ok {
		return "", false, err
	}
	return item.Value, true, nil
}

func (s *Service) FeatureConsumed(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (uint16, bool, error) {
	_, usage, ok, err := s.assignmentUsage(ctx, sub, ref)
	s.recordCheck(ctx, "feature_consumed", ok, err)
	if err != nil || !ok {
		return 0, false, err
	}
	return usage.Used, true, nil
}

// FeatureRemains returns the pivot quota minus the recorded usage. Without a
// usage row there is no answer.
func (s *Service) FeatureRemains(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (decimal.Decimal, bool, error) {
	item, usage, ok, err := s.assignmentUsage(ctx, sub, ref)
	if err == nil && ok {
		var quota decimal.Decimal
		quota, err = decimal.NewFromString(strings.TrimSpace(item.Value))
		if err != nil {
			err = subscriptiondomain.ErrInvalidFeatureValue
		} else {
			s.recordCheck(ctx, "feature_remains", true, nil)
			return quota.Sub(decimal.NewFromInt(int64(usage.Used))), true, nil
		}
	}
	s.recordCheck(ctx, "feature_remains", false, err)
	return decimal.Decimal{}, false, err
}

// FeatureActive reads the pivot value as a flag. With ActiveRequiresUsage the
// flag only counts once a usage row exists.
func (s *Service) FeatureActive(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (bool, error) {
	var (
		item *planfeaturedomain.Assignment
		ok   bool
		err  error
	)
	if s.opts.ActiveRequiresUsage {
		item, _, ok, err = s.assignmentUsage(ctx, sub, ref)
	} else {
		item, ok, err = s.assignment(ctx, sub, ref)
	}
	active := err == nil && ok && flagValue(item.Value)
	s.recordCheck(ctx, "feature_active", active, err)
	return active, err
}

func (s *Service) FeatureUsage(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (*usagedomain.Usage, bool, error) {
	_, usage, ok, err := s.assignmentUsage(ctx, sub, ref)
	s.recordCheck(ctx, "feature_usage", ok, err)
	return usage, ok, err
}

// assignment resolves ref against the subscription's plan. An unusable
// subscription resolves nothing.
func (s *Service) assignment(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (*planfeaturedomain.Assignment, bool, error) {
	if sub == nil {
		return nil, false, subscriptiondomain.ErrInvalidSubscription
	}
	if err := ref.Validate(); err != nil {
		return nil, false, err
	}
	if !sub.Usable(s.clock.Now()) {
		return nil, false, nil
	}

	var (
		item *planfeaturedomain.Assignment
		err  error
	)
	if id, ok := ref.ID(); ok {
		item, err = s.pivotRepo.FindByID(ctx, s.db, sub.PlanID, id)
	} else {
		name, _ := ref.Name()
		item, err = s.pivotRepo.FindByName(ctx, s.db, sub.PlanID, strings.TrimSpace(name))
	}
	if err != nil {
		return nil, false, err
	}
	return item, item != nil, nil
}

func (s *Service) assignmentUsage(ctx context.Context, sub *subscriptiondomain.Subscription, ref subscriptiondomain.FeatureRef) (*planfeaturedomain.Assignment, *usagedomain.Usage, bool, error) {
	item, ok, err := s.assignment(ctx, sub, ref)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	usage, err := s.usageRepo.Find(ctx, s.db, sub.ID, item.FeatureID)
	if err != nil {
		return nil, nil, false, err
	}
	if usage == nil {
		return nil, nil, false, nil
	}
	return item, usage, true, nil
}

func (s *Service) recordCheck(ctx context.Context, op string, ok bool, err error) {
	result := "absent"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "granted"
	}
	s.metrics.RecordEntitlementCheck(ctx, op, result)
}

// flagValue treats "", "0" and false-like words as off and anything else as on.
func flagValue(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	switch strings.ToLower(value) {
	case "off", "no":
		return false
	}
	if n, err := decimal.NewFromString(value); err == nil {
		return !n.IsZero()
	}
	return true
}
