// Package aggregate derives summary views from a full set of expense records.
//
// Every function is pure: results depend only on the input slice, nothing is
// cached between calls, and the input is never modified.
package aggregate

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// TotalsByCategory sums amounts per category. Categories appear in the order
// of their first occurrence in records; categories with no records are absent.
func TotalsByCategory(records []core.Expense) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0)
	index := make(map[string]int)
	for _, e := range records {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// DailyTotals returns one entry per calendar day from the earliest to the
// latest record date inclusive, in ascending order. Days without expenses are
// reported with a zero total.
func DailyTotals(records []core.Expense) []core.DailyAmount {
	if len(records) == 0 {
		return []core.DailyAmount{}
	}

	byDay := make(map[string]decimal.Decimal, len(records))
	first, last := records[0].Date, records[0].Date
	for _, e := range records {
		day := core.DateOf(e.Date.Time)
		byDay[day.String()] = byDay[day.String()].Add(e.Amount)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	first, last = core.DateOf(first.Time), core.DateOf(last.Time)

	out := make([]core.DailyAmount, 0, daysBetween(first, last)+1)
	for day := first; !day.After(last); day = day.AddDays(1) {
		total, ok := byDay[day.String()]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, core.DailyAmount{Date: day, Amount: total})
	}
	return out
}

// Total is the sum of all amounts.
func Total(records []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}

// Summarize bundles the total, the record count and both derived series.
func Summarize(records []core.Expense) core.Summary {
	return core.Summary{
		Total:      Total(records),
		Count:      len(records),
		ByCategory: TotalsByCategory(records),
		Daily:      DailyTotals(records),
	}
}

func daysBetween(from, to core.Date) int {
	return int(to.Sub(from.Time).Hours() / 24)
}
