// Package report computes the derived views the dashboard renders:
// period totals, category breakdowns, daily and monthly series, budget
// consumption. Every function is a pure read of a snapshot plus a
// reference date; nothing here mutates the ledger.
package report

import (
	"math"

	"gastos/internal/core"
)

// DefaultComparisonWindow is the trailing number of months shown by the
// monthly comparison series.
const DefaultComparisonWindow = 6

type (
	// CategorySlice is one non-zero entry of the category breakdown.
	CategorySlice struct {
		CategoryID string     `json:"category_id"`
		Name       string     `json:"name"`
		Color      string     `json:"color"`
		Total      core.Money `json:"total"`
	}

	// DayPoint is one calendar day of the daily series.
	DayPoint struct {
		Day   int        `json:"day"`
		Date  core.Date  `json:"date"`
		Total core.Money `json:"total"`
	}

	// MonthPoint is one month of the comparison series.
	MonthPoint struct {
		Month core.Month `json:"month"`
		Total core.Money `json:"total"`
	}

	// BudgetStatus is the consumption of one category's budget for a
	// month. Percent and Remaining are zero when no budget is set;
	// OverBudget is only ever true when one is.
	BudgetStatus struct {
		CategoryID string     `json:"category_id"`
		Name       string     `json:"name"`
		Color      string     `json:"color"`
		Budget     core.Money `json:"budget"`
		HasBudget  bool       `json:"has_budget"`
		Spent      core.Money `json:"spent"`
		Percent    float64    `json:"percent"`
		OverBudget bool       `json:"over_budget"`
		Remaining  core.Money `json:"remaining"`
	}

	// Overview bundles the headline numbers of the dashboard for one
	// reference date.
	Overview struct {
		Month               core.Month        `json:"month"`
		Total               core.Money        `json:"total"`
		PreviousTotal       core.Money        `json:"previous_total"`
		ChangePercent       float64           `json:"change_percent"`
		TodayTotal          core.Money        `json:"today_total"`
		TodayCount          int               `json:"today_count"`
		DailyAverage        core.Money        `json:"daily_average"`
		DaysWithoutSpending int               `json:"days_without_spending"`
		Biggest             *core.Transaction `json:"biggest,omitempty"`
	}
)

// MonthTotal sums the amounts of all transactions dated within the
// month, both boundary days included.
func MonthTotal(snap core.Snapshot, month core.Month) core.Money {
	var total core.Money
	for _, t := range snap.Transactions {
		if t.Date.In(month) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// DayTotal sums the amounts of all transactions on one calendar day.
func DayTotal(snap core.Snapshot, date core.Date) core.Money {
	var total core.Money
	for _, t := range snap.Transactions {
		if t.Date == date {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// MonthOverMonthChange returns the percentage change between two period
// totals. No prior spending reads as no change, not infinite growth.
func MonthOverMonthChange(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// CategoryBreakdown returns the per-category totals for the month,
// excluding categories with zero spend. Transactions whose category was
// deleted are skipped: only current categories produce slices.
func CategoryBreakdown(snap core.Snapshot, month core.Month) []CategorySlice {
	var out []CategorySlice
	for _, c := range snap.Categories {
		var total core.Money
		for _, t := range snap.Transactions {
			if t.CategoryID == c.ID && t.Date.In(month) {
				total = total.Add(t.Amount)
			}
		}
		if total.IsZero() {
			continue
		}
		out = append(out, CategorySlice{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			Total:      total,
		})
	}
	return out
}

// DailySeries returns one point per calendar day of the month, in day
// order. Days without spending and future days of a current month carry
// a zero total.
func DailySeries(snap core.Snapshot, month core.Month) []DayPoint {
	days := month.Days()
	out := make([]DayPoint, 0, days)
	totals := make(map[core.Date]core.Money, days)
	for _, t := range snap.Transactions {
		if t.Date.In(month) {
			totals[t.Date] = totals[t.Date].Add(t.Amount)
		}
	}
	for day := 1; day <= days; day++ {
		date := month.Date(day)
		out = append(out, DayPoint{Day: day, Date: date, Total: totals[date]})
	}
	return out
}

// MonthlySeries returns the trailing comparison window ending at the
// reference month, one point per month. A window below 1 falls back to
// the default.
func MonthlySeries(snap core.Snapshot, ref core.Month, window int) []MonthPoint {
	if window < 1 {
		window = DefaultComparisonWindow
	}
	out := make([]MonthPoint, 0, window)
	for i := window - 1; i >= 0; i-- {
		m := ref.Add(-i)
		out = append(out, MonthPoint{Month: m, Total: MonthTotal(snap, m)})
	}
	return out
}

// BudgetStatuses reports budget consumption for every category that has
// either a budget for the month or any spend in it. Budgets pointing at
// a deleted category produce no row.
func BudgetStatuses(snap core.Snapshot, month core.Month) []BudgetStatus {
	var out []BudgetStatus
	for _, c := range snap.Categories {
		var spent core.Money
		for _, t := range snap.Transactions {
			if t.CategoryID == c.ID && t.Date.In(month) {
				spent = spent.Add(t.Amount)
			}
		}

		var budget core.Budget
		hasBudget := false
		for _, b := range snap.Budgets {
			if b.CategoryID == c.ID && b.Month == month {
				budget = b
				hasBudget = true
				break
			}
		}

		if !hasBudget && spent.IsZero() {
			continue
		}

		status := BudgetStatus{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			Spent:      spent,
			HasBudget:  hasBudget,
		}
		if hasBudget {
			status.Budget = budget.Amount
			status.Percent = float64(spent.Cents) / float64(budget.Amount.Cents) * 100
			status.OverBudget = spent.Cents > budget.Amount.Cents
			status.Remaining = budget.Amount.Sub(spent)
		}
		out = append(out, status)
	}
	return out
}

// BiggestTransaction returns the transaction with the highest amount in
// the month. ok is false when the month has none. Ties keep the earliest
// record.
func BiggestTransaction(snap core.Snapshot, month core.Month) (core.Transaction, bool) {
	var best core.Transaction
	found := false
	for _, t := range snap.Transactions {
		if !t.Date.In(month) {
			continue
		}
		if !found || t.Amount.Cents > best.Amount.Cents {
			best = t
			found = true
		}
	}
	return best.Clone(), found
}

// DaysWithoutSpending counts the zero-spend days in the elapsed portion
// of the reference date's month, day 1 through the reference day.
func DaysWithoutSpending(snap core.Snapshot, ref core.Date) int {
	month := core.MonthOf(ref)
	spent := make(map[core.Date]bool)
	for _, t := range snap.Transactions {
		if t.Date.In(month) {
			spent[t.Date] = true
		}
	}
	count := 0
	for day := 1; day <= ref.Day(); day++ {
		if !spent[month.Date(day)] {
			count++
		}
	}
	return count
}

// AverageDailySpending is the month's total divided by the elapsed days
// of the reference date, zero when the month has no transactions.
func AverageDailySpending(snap core.Snapshot, ref core.Date) core.Money {
	month := core.MonthOf(ref)
	count := 0
	var total core.Money
	for _, t := range snap.Transactions {
		if t.Date.In(month) {
			total = total.Add(t.Amount)
			count++
		}
	}
	if count == 0 {
		return core.Money{}
	}
	cents := math.Round(float64(total.Cents) / float64(ref.Day()))
	return core.Money{Cents: int64(cents)}
}

// BuildOverview composes the dashboard headline for the reference date.
func BuildOverview(snap core.Snapshot, ref core.Date) Overview {
	month := core.MonthOf(ref)
	total := MonthTotal(snap, month)
	previous := MonthTotal(snap, month.Add(-1))

	todayCount := 0
	for _, t := range snap.Transactions {
		if t.Date == ref {
			todayCount++
		}
	}

	o := Overview{
		Month:               month,
		Total:               total,
		PreviousTotal:       previous,
		ChangePercent:       MonthOverMonthChange(total, previous),
		TodayTotal:          DayTotal(snap, ref),
		TodayCount:          todayCount,
		DailyAverage:        AverageDailySpending(snap, ref),
		DaysWithoutSpending: DaysWithoutSpending(snap, ref),
	}
	if biggest, ok := BiggestTransaction(snap, month); ok {
		o.Biggest = &biggest
	}
	return o
}
