package services

import (
	"testing"

	"pocketbook/internal/core"
)

func TestWeekdayChecker_IsDue(t *testing.T) {
	checker := WeekdayChecker{}
	wednesday := core.NewDate(2024, 5, 15)

	tests := []struct {
		name string
		days core.Weekdays
		want bool
	}{
		{name: "recurs on wednesday", days: core.Weekdays{1, 3, 5}, want: true},
		{name: "weekends only", days: core.Weekdays{0, 6}, want: false},
		{name: "every day", days: core.Weekdays{0, 1, 2, 3, 4, 5, 6}, want: true},
		{name: "no days", days: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(core.RecurringExpense{RecurringDays: tt.days}, wednesday)
			if got != tt.want {
				t.Errorf("WeekdayChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDueOn(t *testing.T) {
	sunday := core.NewDate(2024, 5, 19)
	expenses := []core.RecurringExpense{
		{ID: "a", RecurringDays: core.Weekdays{0}},
		{ID: "b", RecurringDays: core.Weekdays{1}},
		{ID: "c", RecurringDays: core.Weekdays{6, 0}},
	}

	due := DueOn(WeekdayChecker{}, expenses, sunday)
	if len(due) != 2 || due[0].ID != "a" || due[1].ID != "c" {
		t.Fatalf("unexpected due expenses: %+v", due)
	}

	none := DueOn(DuenessCheckerFunc(func(core.RecurringExpense, core.Date) bool { return false }), expenses, sunday)
	if len(none) != 0 {
		t.Fatalf("expected nothing due, got %d", len(none))
	}
}
