package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"category" yaml:"category"`
	Amount decimal.Decimal `json:"total" yaml:"total"`
}

// DailyAmount is the total spent on a single calendar day.
type DailyAmount struct {
	Date   Date            `json:"date" yaml:"date"`
	Amount decimal.Decimal `json:"total" yaml:"total"`
}

// Summary is the compact view shown next to the expense table.
type Summary struct {
	Total      decimal.Decimal  `json:"total" yaml:"total"`
	Count      int              `json:"count" yaml:"count"`
	ByCategory []CategoryAmount `json:"by_category" yaml:"by_category"`
	Daily      []DailyAmount    `json:"daily" yaml:"daily"`
}
