package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pocketbook/internal/core"
	applog "pocketbook/internal/log"
)

type monthlyReportResponse struct {
	core.MonthlyReport
	Overspent     bool                  `json:"overspent"`
	TopCategories []core.CategoryAmount `json:"topCategories"`
}

type amountResponse struct {
	Amount decimal.Decimal `json:"amount"`
	// Display is the amount rounded to cents.
	Display string `json:"display"`
}

func newAmountResponse(d decimal.Decimal) amountResponse {
	return amountResponse{Amount: d, Display: core.FormatAmount(d)}
}

// handleMonthlyReport aggregates actual transactions for ?month=YYYY-MM
// against the user's monthly budget.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	month, err := parseMonth(r, s.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	user, err := s.svc.Users.Profile(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	report, err := s.svc.Reports.MonthlyReport(r.Context(), userID, month, user.MonthlyBudget)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if report.Transactions == nil {
		report.Transactions = []core.Transaction{}
	}

	fields := applog.NewFields().WithUser(userID).WithComponent(applog.ComponentReport).WithOperation(applog.OpReport)
	fields[applog.FieldMonth] = month.Format("2006-01")
	applog.FromContext(r.Context()).WithFields(fields).DebugContext(r.Context(), "Monthly report built",
		"total_spent", report.TotalSpent.String(), "transactions", len(report.Transactions))
	writeJSON(w, http.StatusOK, monthlyReportResponse{
		MonthlyReport: report,
		Overspent:     report.Overspent(),
		TopCategories: report.SortedBreakdown(),
	})
}

// handleProjection projects a month of recurring expenses.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	total, err := s.svc.Reports.ProjectedMonthlyTotal(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(total))
}

// handleRemaining walks the current month's days up to today subtracting
// recurring expenses from the budget.
func (s *Server) handleRemaining(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	user, err := s.svc.Users.Profile(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	remaining, err := s.svc.Reports.RemainingBudgetByDayWalk(r.Context(), userID, user.MonthlyBudget, s.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(remaining))
}
