// Package export renders expenses and summaries for the CLI in CSV, JSON or
// YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"expensetracker/internal/core"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want csv, json or yaml)", s)
	}
}

type record struct {
	ID          int64  `json:"id" yaml:"id"`
	Date        string `json:"expense_date" yaml:"expense_date"`
	Amount      string `json:"amount" yaml:"amount"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

var csvHeader = []string{"id", "expense_date", "amount", "category", "description", "created_at"}

func toRecord(e core.Expense) record {
	return record{
		ID:          e.ID,
		Date:        e.Date.String(),
		Amount:      core.FormatAmount(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteExpenses encodes expenses in the given format.
func WriteExpenses(w io.Writer, f Format, expenses []core.Expense) error {
	records := make([]record, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, toRecord(e))
	}

	switch f {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, r := range records {
			row := []string{strconv.FormatInt(r.ID, 10), r.Date, r.Amount, r.Category, r.Description, r.CreatedAt}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		return writeJSON(w, records)
	case FormatYAML:
		return writeYAML(w, records)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

type summaryDoc struct {
	Total      string         `json:"total" yaml:"total"`
	Count      int            `json:"count" yaml:"count"`
	ByCategory []categoryLine `json:"by_category" yaml:"by_category"`
	Daily      []dailyLine    `json:"daily" yaml:"daily"`
}

type categoryLine struct {
	Category string `json:"category" yaml:"category"`
	Total    string `json:"total" yaml:"total"`
}

type dailyLine struct {
	Date  string `json:"date" yaml:"date"`
	Total string `json:"total" yaml:"total"`
}

// WriteSummary encodes s. CSV output carries the per-category totals only.
func WriteSummary(w io.Writer, f Format, s core.Summary) error {
	doc := summaryDoc{
		Total:      core.FormatAmount(s.Total),
		Count:      s.Count,
		ByCategory: make([]categoryLine, 0, len(s.ByCategory)),
		Daily:      make([]dailyLine, 0, len(s.Daily)),
	}
	for _, c := range s.ByCategory {
		doc.ByCategory = append(doc.ByCategory, categoryLine{c.Name, core.FormatAmount(c.Amount)})
	}
	for _, d := range s.Daily {
		doc.Daily = append(doc.Daily, dailyLine{d.Date.String(), core.FormatAmount(d.Amount)})
	}

	switch f {
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"category", "total"})
		for _, c := range doc.ByCategory {
			_ = cw.Write([]string{c.Category, c.Total})
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
