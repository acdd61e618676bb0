// Package services provides business logic and orchestration services.
//
// This file holds the strategy used to decide whether a recurring expense is
// due on a given calendar day.
package services

import (
	"pocketbook/internal/core"
)

// DuenessChecker decides whether a recurring expense produces a transaction
// on a given day.
type DuenessChecker interface {
	IsDue(e core.RecurringExpense, day core.Date) bool
}

// WeekdayChecker is due on every day whose day-of-week is in the expense's
// recurring days.
type WeekdayChecker struct{}

func (WeekdayChecker) IsDue(e core.RecurringExpense, day core.Date) bool {
	return e.OccursOn(day)
}

// DuenessCheckerFunc adapts a plain function to DuenessChecker.
type DuenessCheckerFunc func(e core.RecurringExpense, day core.Date) bool

func (f DuenessCheckerFunc) IsDue(e core.RecurringExpense, day core.Date) bool {
	return f(e, day)
}

// DueOn returns the expenses that are due on day, preserving order.
func DueOn(checker DuenessChecker, expenses []core.RecurringExpense, day core.Date) []core.RecurringExpense {
	var due []core.RecurringExpense
	for _, e := range expenses {
		if checker.IsDue(e, day) {
			due = append(due, e)
		}
	}
	return due
}
