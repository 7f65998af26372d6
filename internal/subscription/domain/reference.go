package domain

import (
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	featuredomain "github.com/smallbiznis/entitlements/internal/feature/domain"
	plandomain "github.com/smallbiznis/entitlements/internal/plan/domain"
)

type refKind uint8

const (
	refNone refKind = iota
	refByID
	refByName
	refByValue
)

// FeatureRef selects a feature by id, by unique name, or by a loaded entity. Entities
// are matched by their id.
// The zero value selects nothing and is rejected with ErrInvalidArgumentType.
type FeatureRef struct {
	kind refKind
	id   snowflake.ID
	name string
}

func FeatureByID(id snowflake.ID) FeatureRef {
	return FeatureRef{kind: refByID, id: id}
}

func FeatureByName(name string) FeatureRef {
	return FeatureRef{kind: refByName, name: name}
}

func FeatureOf(feature featuredomain.Feature) FeatureRef {
	return FeatureRef{kind: refByValue, id: feature.ID}
}

func (r FeatureRef) IsZero() bool { return r.kind == refNone }

// ID returns the feature id when the reference carries one.
func (r FeatureRef) ID() (snowflake.ID, bool) {
	return r.id, r.kind == refByID || r.kind == refByValue
}

// Name returns the feature name when the reference selects by name.
func (r FeatureRef) Name() (string, bool) {
	return r.name, r.kind == refByName
}

func (r FeatureRef) Validate() error {
	switch r.kind {
	case refByID, refByValue:
		if r.id == 0 {
			return ErrInvalidArgumentType
		}
	case refByName:
		if strings.TrimSpace(r.name) == "" {
			return ErrInvalidArgumentType
		}
	default:
		return ErrInvalidArgumentType
	}
	return nil
}

// ParseFeatureRef accepts a Feature, *Feature, FeatureRef, integer id or name string.
func ParseFeatureRef(v any) (FeatureRef, error) {
	var ref FeatureRef
	switch t := v.(type) {
	case FeatureRef:
		ref = t
	case featuredomain.Feature:
		ref = FeatureOf(t)
	case *featuredomain.Feature:
		if t == nil {
			return FeatureRef{}, ErrInvalidArgumentType
		}
		ref = FeatureOf(*t)
	case string:
		ref = FeatureByName(t)
	default:
		id, ok := integerID(v)
		if !ok {
			return FeatureRef{}, ErrInvalidArgumentType
		}
		ref = FeatureByID(id)
	}
	if err := ref.Validate(); err != nil {
		return FeatureRef{}, err
	}
	return ref, nil
}

// PlanRef selects a plan by id, by unique name, or by a loaded entity.
type PlanRef struct {
	kind refKind
	id   snowflake.ID
	name string
}

func PlanByID(id snowflake.ID) PlanRef {
	return PlanRef{kind: refByID, id: id}
}

func PlanByName(name string) PlanRef {
	return PlanRef{kind: refByName, name: name}
}

func PlanOf(plan plandomain.Plan) PlanRef {
	return PlanRef{kind: refByValue, id: plan.ID}
}

func (r PlanRef) IsZero() bool { return r.kind == refNone }

func (r PlanRef) ID() (snowflake.ID, bool) {
	return r.id, r.kind == refByID || r.kind == refByValue
}

func (r PlanRef) Name() (string, bool) {
	return r.name, r.kind == refByName
}

func (r PlanRef) Validate() error {
	switch r.kind {
	case refByID, refByValue:
		if r.id == 0 {
			return ErrInvalidArgumentType
		}
	case refByName:
		if strings.TrimSpace(r.name) == "" {
			return ErrInvalidArgumentType
		}
	default:
		return ErrInvalidArgumentType
	}
	return nil
}

// ParsePlanRef accepts a Plan, *Plan, PlanRef, integer id or name string.
func ParsePlanRef(v any) (PlanRef, error) {
	var ref PlanRef
	switch t := v.(type) {
	case PlanRef:
		ref = t
	case plandomain.Plan:
		ref = PlanOf(t)
	case *plandomain.Plan:
		if t == nil {
			return PlanRef{}, ErrInvalidArgumentType
		}
		ref = PlanOf(*t)
	case string:
		ref = PlanByName(t)
	default:
		id, ok := integerID(v)
		if !ok {
			return PlanRef{}, ErrInvalidArgumentType
		}
		ref = PlanByID(id)
	}
	if err := ref.Validate(); err != nil {
		return PlanRef{}, err
	}
	return ref, nil
}

func integerID(v any) (snowflake.ID, bool) {
	switch t := v.(type) {
	case snowflake.ID:
		return t, true
	case int:
		return snowflake.ID(t), true
	case int8:
		return snowflake.ID(t), true
	case int16:
		return snowflake.ID(t), true
	case int32:
		return snowflake.ID(t), true
	case int64:
		return snowflake.ID(t), true
	case uint:
		return uintID(uint64(t))
	case uint8:
		return snowflake.ID(t), true
	case uint16:
		return snowflake.ID(t), true
	case uint32:
		return snowflake.ID(t), true
	case uint64:
		return uintID(t)
	default:
		return 0, false
	}
}

func uintID(v uint64) (snowflake.ID, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return snowflake.ID(v), true
}
