package google

import (
	"strconv"
	"time"

	"expensetracker/internal/core"
)

var header = []any{"ID", "Date", "Amount", "Category", "Description", "Created At"}

// lastColumn is the spreadsheet column of the final header cell.
const lastColumn = "F"

// toRows renders the header followed by one row per expense.
func toRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, header)
	for _, e := range expenses {
		rows = append(rows, []any{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			core.FormatAmount(e.Amount),
			e.Category,
			e.Description,
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}
