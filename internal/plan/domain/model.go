// Package domain contains the plan catalog model and its billing interval arithmetic.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Interval is the unit a plan renews on.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

const MaxNameLength = 32

// MaxPrice is the largest value a DECIMAL(7,2) column holds.
var MaxPrice = decimal.RequireFromString("99999.99")

func (i Interval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	default:
		return false
	}
}

// AddTo advances t by count units of the interval. Month and year steps keep the
// day of month when it exists in the target month and otherwise land on its last day.
func (i Interval) AddTo(t time.Time, count int) (time.Time, error) {
	if count < 1 {
		return time.Time{}, ErrInvalidIntervalCount
	}
	switch i {
	case IntervalDay:
		return t.AddDate(0, 0, count), nil
	case IntervalWeek:
		return t.AddDate(0, 0, 7*count), nil
	case IntervalMonth:
		return addMonths(t, count), nil
	case IntervalYear:
		return addMonths(t, 12*count), nil
	default:
		return time.Time{}, ErrInvalidInterval
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Plan is a named pricing tier renewing every IntervalCount Intervals.
type Plan struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	Name          string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Fullname      *string         `gorm:"type:varchar(255)"`
	Description   *string         `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0.00"`
	Interval      Interval        `gorm:"type:varchar(255);not null;default:month"`
	IntervalCount int16           `gorm:"type:smallint;not null;default:1"`
	SortOrder     *int16          `gorm:"type:smallint"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

func (Plan) TableName() string { return "subscription_plans" }

// PeriodEnd returns the end of a billing period beginning at start.
func (p Plan) PeriodEnd(start time.Time) (time.Time, error) {
	return p.Interval.AddTo(start, int(p.IntervalCount))
}
