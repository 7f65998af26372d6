package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/entitlements/internal/clock"
	featuredomain "github.com/smallbiznis/entitlements/internal/feature/domain"
	featurerepo "github.com/smallbiznis/entitlements/internal/feature/repository"
	"github.com/smallbiznis/entitlements/internal/lock"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
	planrepo "github.com/smallbiznis/entitlements/internal/plan/repository"
	planfeaturedomain "github.com/smallbiznis/entitlements/internal/planfeature/domain"
	planfeaturerepo "github.com/smallbiznis/entitlements/internal/planfeature/repository"
	subscriptiondomain "github.com/smallbiznis/entitlements/internal/subscription/domain"
	"github.com/smallbiznis/entitlements/internal/subscription/repository"
	"github.com/smallbiznis/entitlements/internal/testutil"
	usagedomain "github.com/smallbiznis/entitlements/internal/usage/domain"
	usagerepo "github.com/smallbiznis/entitlements/internal/usage/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var startOfTest = time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc    subscriptiondomain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
	node   *snowflake.Node
	locker *lock.MemoryLocker

	basic   *plandomain.Plan
	storage featuredomain.Feature
	flag    featuredomain.Feature
	label   featuredomain.Feature
	extra   featuredomain.Feature
}

func setupSubscriptionService(t *testing.T, opts subscriptiondomain.Options) *harness {
	t.Helper()

	h := &harness{
		db:    testutil.OpenDB(t),
		clock: clock.NewFakeClock(startOfTest),
		node:  testutil.MustNode(t),
	}
	h.locker = lock.NewMemoryLocker(h.clock.Now)
	if opts.DefaultOwnerType == "" {
		opts.DefaultOwnerType = "users"
	}

	h.svc = NewService(ServiceParam{
		DB:        h.db,
		Log:       zap.NewNop(),
		GenID:     h.node,
		Clock:     h.clock,
		Repo:      repository.Provide(),
		PlanRepo:  planrepo.Provide(),
		PivotRepo: planfeaturerepo.Provide(),
		UsageRepo: usagerepo.Provide(),
		Options:   opts,
		Locker:    h.locker,
	})

	h.basic = h.createPlan(t, "basic")
	h.storage = h.createFeature(t, "storage")
	h.flag = h.createFeature(t, "priority-support")
	h.label = h.createFeature(t, "label")
	h.extra = h.createFeature(t, "extra")

	h.attach(t, h.basic, h.storage, "512")
	h.attach(t, h.basic, h.flag, "1")
	h.attach(t, h.basic, h.label, "gold")
	return h
}

func (h *harness) createPlan(t *testing.T, name string) *plandomain.Plan {
	t.Helper()
	now := h.clock.Now()
	plan := &plandomain.Plan{
		ID:            h.node.Generate(),
		Name:          name,
		Price:         decimal.RequireFromString("9.99"),
		Interval:      plandomain.IntervalMonth,
		IntervalCount: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, planrepo.Provide().Insert(context.Background(), h.db, plan))
	return plan
}

func (h *harness) createFeature(t *testing.T, name string) featuredomain.Feature {
	t.Helper()
	now := h.clock.Now()
	feature := featuredomain.Feature{ID: h.node.Generate(), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, featurerepo.Provide().Create(context.Background(), h.db, &feature))
	return feature
}

func (h *harness) attach(t *testing.T, plan *plandomain.Plan, feature featuredomain.Feature, value string) {
	t.Helper()
	now := h.clock.Now()
	require.NoError(t, planfeaturerepo.Provide().Upsert(context.Background(), h.db, &planfeaturedomain.PlanFeature{
		PlanID:    plan.ID,
		FeatureID: feature.ID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func (h *harness) recordUsage(t *testing.T, sub *subscriptiondomain.Subscription, feature featuredomain.Feature, used uint16) {
	t.Helper()
	now := h.clock.Now()
	require.NoError(t, usagerepo.Provide().Insert(context.Background(), h.db, &usagedomain.Usage{
		ID:             h.node.Generate(),
		SubscriptionID: sub.ID,
		FeatureID:      feature.ID,
		Used:           used,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func (h *harness) subscribe(t *testing.T, ownerID snowflake.ID) *subscriptiondomain.Subscription {
	t.Helper()
	sub, err := h.svc.Subscribe(context.Background(), subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: ownerID},
		Plan:  subscriptiondomain.PlanByName("basic"),
	})
	require.NoError(t, err)
	return sub
}

func TestSubscribeCancelRenewScenario(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{ActiveRequiresUsage: true})
	ctx := context.Background()
	storage := subscriptiondomain.FeatureByName("storage")

	sub := h.subscribe(t, 1)

	exists, err := h.svc.FeatureExists(ctx, sub, storage)
	require.NoError(t, err)
	assert.True(t, exists)

	value, ok, err := h.svc.FeatureValue(ctx, sub, storage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "512", value)

	require.NoError(t, h.svc.Cancel(ctx, sub))
	assert.True(t, sub.Canceled())

	stored, err := h.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Canceled(), "cancel must be persisted")

	exists, err = h.svc.FeatureExists(ctx, sub, storage)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, h.svc.Renew(ctx, sub, nil, nil))
	exists, err = h.svc.FeatureExists(ctx, sub, storage)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, sub.Canceled())
	assert.False(t, sub.Ended(h.clock.Now()))

	stored, err = h.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Canceled(), "renew must not persist on its own")

	require.NoError(t, h.svc.Save(ctx, sub))
	stored, err = h.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, stored.Canceled())
}

func TestSubscribeUsesCalendarMonth(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	sub := h.subscribe(t, 1)

	require.NotNil(t, sub.StartsAt)
	require.NotNil(t, sub.EndsAt)
	assert.True(t, sub.StartsAt.Equal(startOfTest))
	assert.True(t, sub.EndsAt.Equal(time.Date(2024, time.February, 29, 10, 0, 0, 0, time.UTC)), "ends_at %s", sub.EndsAt)
	assert.Equal(t, h.basic.ID, sub.PlanID)
}

func TestSubscribeResolvesPlanByEveryShape(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()

	refs := []any{*h.basic, h.basic, h.basic.ID, int64(h.basic.ID), "basic"}
	for i, input := range refs {
		ref, err := subscriptiondomain.ParsePlanRef(input)
		require.NoError(t, err)

		sub, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
			Owner: subscriptiondomain.OwnerRef{Type: "users", ID: snowflake.ID(100 + i)},
			Plan:  ref,
		})
		require.NoError(t, err, "input %T", input)
		assert.Equal(t, h.basic.ID, sub.PlanID)
	}
}

func TestSubscribeErrors(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	owner := subscriptiondomain.OwnerRef{Type: "users", ID: 1}

	_, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{Owner: owner, Plan: subscriptiondomain.PlanByName("missing")})
	assert.ErrorIs(t, err, subscriptiondomain.ErrNotFound)
	assert.ErrorIs(t, err, subscriptiondomain.ErrPlanNotFound)
	assert.ErrorIs(t, err, plandomain.ErrNotFound)

	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{Owner: owner, Plan: subscriptiondomain.PlanByID(12345)})
	assert.ErrorIs(t, err, subscriptiondomain.ErrPlanNotFound)

	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{Owner: owner})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidArgumentType)

	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{Plan: subscriptiondomain.PlanByName("basic")})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidOwner)

	h.subscribe(t, 1)
	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{Owner: owner, Plan: subscriptiondomain.PlanByName("basic")})
	assert.ErrorIs(t, err, subscriptiondomain.ErrAlreadySubscribed)
}

func lockKey(ownerID snowflake.ID, plan *plandomain.Plan) string {
	return fmt.Sprintf("subscribe:users:%d:%d", ownerID.Int64(), plan.ID.Int64())
}

func TestSubscribeLockIsScopedToPlan(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{SubscribeLockTTL: time.Minute})
	ctx := context.Background()
	pro := h.createPlan(t, "pro")

	_, ok, err := h.locker.TryLock(ctx, lockKey(9, h.basic), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	sub, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 9},
		Plan:  subscriptiondomain.PlanOf(*pro),
	})
	require.NoError(t, err)
	assert.Equal(t, pro.ID, sub.PlanID)
}

func TestSubscribeWaitsOutHeldLock(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{SubscribeLockTTL: 50 * time.Millisecond})
	ctx := context.Background()

	h.subscribe(t, 1)
	_, ok, err := h.locker.TryLock(ctx, lockKey(1, h.basic), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 1},
		Plan:  subscriptiondomain.PlanByName("basic"),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrAlreadySubscribed)

	_, ok, err = h.locker.TryLock(ctx, lockKey(2, h.basic), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	sub, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 2},
		Plan:  subscriptiondomain.PlanByName("basic"),
	})
	require.NoError(t, err)
	assert.Equal(t, h.basic.ID, sub.PlanID)
}

func TestSubscribeAcquiresReleasedLock(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{SubscribeLockTTL: 5 * time.Second})
	ctx := context.Background()

	token, ok, err := h.locker.TryLock(ctx, lockKey(3, h.basic), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = h.locker.Release(context.Background(), lockKey(3, h.basic), token)
	}()

	sub, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 3},
		Plan:  subscriptiondomain.PlanByName("basic"),
	})
	require.NoError(t, err)
	assert.Equal(t, h.basic.ID, sub.PlanID)
}

func TestConcurrentSubscribeToSamePlan(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{SubscribeLockTTL: 5 * time.Second})
	ctx := context.Background()

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
				Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 4},
				Plan:  subscriptiondomain.PlanByName("basic"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, subscriptiondomain.ErrAlreadySubscribed)
	}
	assert.Equal(t, 1, succeeded)

	all, err := h.svc.ListByOwner(ctx, subscriptiondomain.OwnerRef{Type: "users", ID: 4})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOwnerLookups(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	pro := h.createPlan(t, "pro")

	first, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{ID: 7},
		Plan:  subscriptiondomain.PlanOf(*h.basic),
	})
	require.NoError(t, err)
	assert.Equal(t, "users", first.OwnerType)

	h.clock.Advance(time.Minute)
	second, err := h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 7},
		Plan:  subscriptiondomain.PlanOf(*pro),
	})
	require.NoError(t, err)

	latest, err := h.svc.FindByOwner(ctx, subscriptiondomain.OwnerRef{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	all, err := h.svc.ListByOwner(ctx, subscriptiondomain.OwnerRef{Type: "users", ID: 7})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	subscribed, err := h.svc.Subscribed(ctx, subscriptiondomain.OwnerRef{Type: "users", ID: 7})
	require.NoError(t, err)
	assert.True(t, subscribed)

	subscribed, err = h.svc.Subscribed(ctx, subscriptiondomain.OwnerRef{Type: "teams", ID: 7})
	require.NoError(t, err)
	assert.False(t, subscribed)

	_, err = h.svc.FindByOwner(ctx, subscriptiondomain.OwnerRef{Type: "teams", ID: 7})
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
	assert.ErrorIs(t, err, subscriptiondomain.ErrNotFound)
}

func TestFeatureExistsIgnoresReferenceShape(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)

	for _, feature := range []featuredomain.Feature{h.storage, h.extra} {
		var answers []bool
		for _, input := range []any{feature, feature.ID, feature.Name} {
			ref, err := subscriptiondomain.ParseFeatureRef(input)
			require.NoError(t, err)
			ok, err := h.svc.FeatureExists(ctx, sub, ref)
			require.NoError(t, err)
			answers = append(answers, ok)
		}
		assert.Equal(t, answers[0], answers[1], feature.Name)
		assert.Equal(t, answers[0], answers[2], feature.Name)
	}

	ok, err := h.svc.FeatureExists(ctx, sub, subscriptiondomain.FeatureOf(h.storage))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.svc.FeatureExists(ctx, sub, subscriptiondomain.FeatureOf(h.extra))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.svc.FeatureExists(ctx, sub, subscriptiondomain.FeatureByName("unknown"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetFeatureLoadsPivot(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)

	item, ok, err := h.svc.GetFeature(ctx, sub, subscriptiondomain.FeatureByID(h.storage.ID))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "storage", item.Name)
	assert.Equal(t, "512", item.Value)
	assert.Equal(t, h.storage.ID, item.Feature().ID)

	item, ok, err = h.svc.GetFeature(ctx, sub, subscriptiondomain.FeatureOf(h.extra))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, item)
}

func TestFeatureRemainsNeedsUsageRow(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)
	storage := subscriptiondomain.FeatureByName("storage")

	_, ok, err := h.svc.FeatureRemains(ctx, sub, storage)
	require.NoError(t, err)
	assert.False(t, ok, "no usage row means no answer")

	_, ok, err = h.svc.FeatureConsumed(ctx, sub, storage)
	require.NoError(t, err)
	assert.False(t, ok)

	h.recordUsage(t, sub, h.storage, 100)

	remains, ok, err := h.svc.FeatureRemains(ctx, sub, storage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, remains.Equal(decimal.NewFromInt(412)), "remains %s", remains)

	used, ok, err := h.svc.FeatureConsumed(ctx, sub, storage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 100, used)

	usage, ok, err := h.svc.FeatureUsage(ctx, sub, storage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sub.ID, usage.SubscriptionID)

	h.recordUsage(t, sub, h.label, 1)
	_, ok, err = h.svc.FeatureRemains(ctx, sub, subscriptiondomain.FeatureByName("label"))
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidFeatureValue)
	assert.False(t, ok)
}

func TestCancelHidesFeaturesUntilRenew(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)
	h.recordUsage(t, sub, h.storage, 12)
	storage := subscriptiondomain.FeatureByID(h.storage.ID)

	type answers struct {
		exists  bool
		value   string
		remains string
		found   bool
	}
	snapshot := func() answers {
		exists, err := h.svc.FeatureExists(ctx, sub, storage)
		require.NoError(t, err)
		value, _, err := h.svc.FeatureValue(ctx, sub, storage)
		require.NoError(t, err)
		remains, found, err := h.svc.FeatureRemains(ctx, sub, storage)
		require.NoError(t, err)
		return answers{exists: exists, value: value, remains: remains.String(), found: found}
	}

	before := snapshot()
	assert.Equal(t, answers{exists: true, value: "512", remains: "500", found: true}, before)

	require.NoError(t, h.svc.Cancel(ctx, sub))
	assert.Equal(t, answers{remains: "0"}, snapshot())

	require.NoError(t, h.svc.Renew(ctx, sub, nil, nil))
	assert.Equal(t, before, snapshot())
}

func TestEndedSubscriptionIsUnusable(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)

	h.clock.Set(*sub.EndsAt)
	assert.True(t, sub.Ended(h.clock.Now()))
	assert.False(t, sub.Canceled())

	ok, err := h.svc.FeatureExists(ctx, sub, subscriptiondomain.FeatureByName("storage"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeatureActive(t *testing.T) {
	ctx := context.Background()

	t.Run("requires usage", func(t *testing.T) {
		h := setupSubscriptionService(t, subscriptiondomain.Options{ActiveRequiresUsage: true})
		sub := h.subscribe(t, 1)
		flag := subscriptiondomain.FeatureOf(h.flag)

		active, err := h.svc.FeatureActive(ctx, sub, flag)
		require.NoError(t, err)
		assert.False(t, active)

		h.recordUsage(t, sub, h.flag, 0)
		active, err = h.svc.FeatureActive(ctx, sub, flag)
		require.NoError(t, err)
		assert.True(t, active)
	})

	t.Run("flag only", func(t *testing.T) {
		h := setupSubscriptionService(t, subscriptiondomain.Options{ActiveRequiresUsage: false})
		sub := h.subscribe(t, 1)

		active, err := h.svc.FeatureActive(ctx, sub, subscriptiondomain.FeatureOf(h.flag))
		require.NoError(t, err)
		assert.True(t, active)

		h.attach(t, h.basic, h.flag, "0")
		active, err = h.svc.FeatureActive(ctx, sub, subscriptiondomain.FeatureOf(h.flag))
		require.NoError(t, err)
		assert.False(t, active)

		active, err = h.svc.FeatureActive(ctx, sub, subscriptiondomain.FeatureOf(h.extra))
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestInvalidReferenceIsRejectedEverywhere(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()
	sub := h.subscribe(t, 1)

	_, err := subscriptiondomain.ParseFeatureRef(3.14)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidArgumentType)
	_, err = subscriptiondomain.ParsePlanRef(3.14)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidArgumentType)

	var bad subscriptiondomain.FeatureRef
	check := func(name string, err error) {
		t.Helper()
		assert.True(t, errors.Is(err, subscriptiondomain.ErrInvalidArgumentType), "%s: %v", name, err)
	}

	run := func() {
		_, err := h.svc.FeatureExists(ctx, sub, bad)
		check("FeatureExists", err)
		_, _, err = h.svc.GetFeature(ctx, sub, bad)
		check("GetFeature", err)
		_, _, err = h.svc.FeatureValue(ctx, sub, bad)
		check("FeatureValue", err)
		_, _, err = h.svc.FeatureConsumed(ctx, sub, bad)
		check("FeatureConsumed", err)
		_, _, err = h.svc.FeatureRemains(ctx, sub, bad)
		check("FeatureRemains", err)
		_, err = h.svc.FeatureActive(ctx, sub, bad)
		check("FeatureActive", err)
		_, _, err = h.svc.FeatureUsage(ctx, sub, bad)
		check("FeatureUsage", err)
	}
	run()

	require.NoError(t, h.svc.Cancel(ctx, sub))
	run()

	_, err = h.svc.Subscribe(ctx, subscriptiondomain.SubscribeRequest{
		Owner: subscriptiondomain.OwnerRef{Type: "users", ID: 2},
		Plan:  subscriptiondomain.PlanByName(""),
	})
	check("Subscribe", err)
}

func TestSaveAndCancelUnknownSubscription(t *testing.T) {
	h := setupSubscriptionService(t, subscriptiondomain.Options{})
	ctx := context.Background()

	ghost := &subscriptiondomain.Subscription{ID: 99, OwnerType: "users", OwnerID: 1, PlanID: h.basic.ID}
	assert.ErrorIs(t, h.svc.Cancel(ctx, ghost), subscriptiondomain.ErrSubscriptionNotFound)
	assert.False(t, ghost.Canceled())

	assert.ErrorIs(t, h.svc.Save(ctx, nil), subscriptiondomain.ErrInvalidSubscription)

	_, err := h.svc.Get(ctx, 99)
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}
