package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker decides whether a recurring template should produce a
// transaction at a given moment. One implementation per frequency.
type DuenessChecker interface {
	IsDue(lastExecution, now time.Time, startDate core.Date) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return lastExecution.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when 7 or more days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return now.Sub(lastExecution).Hours()/24 >= 7
}

// MonthlyChecker fires once per month on the start date's day, clamped
// to the last day of shorter months.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(startDate.Day(), now)
}

// YearlyChecker fires once per year on the start date's month and day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() {
		return false
	}
	targetMonth := int(startDate.Month())
	switch {
	case int(now.Month()) < targetMonth:
		return false
	case int(now.Month()) == targetMonth:
		return now.Day() >= clampDay(startDate.Day(), now)
	default:
		return true
	}
}

// clampDay pulls a target day-of-month back to the last day of now's
// month when the month is shorter (e.g. the 31st in February).
func clampDay(targetDay int, now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDay {
		return lastDay
	}
	return targetDay
}

var duenessCheckers = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessCheckers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}
