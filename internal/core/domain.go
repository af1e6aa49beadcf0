package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk and wire format for expense dates.
const DateLayout = "2006-01-02"

// DefaultCategories are the labels offered by the presentation layer.
// The store accepts any non-empty category.
var DefaultCategories = []string{
	"Food",
	"Shopping",
	"Entertainment",
	"Care",
	"Transportation",
	"Other",
}

type (
	// Date is a calendar day without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	// ExpenseInput holds the caller-supplied, mutable fields of an expense.
	ExpenseInput struct {
		Date        Date
		Amount      decimal.Decimal
		Category    string
		Description string
	}

	// Expense is a persisted expense record.
	Expense struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"expense_date"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		CreatedAt   time.Time       `json:"created_at"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Supported calendar range. Anything outside it is almost certainly a typo.
const (
	MinYear = 1900
	MaxYear = 2999
)

// ParseDate parses a YYYY-MM-DD string. A complete RFC 3339 timestamp is also
// accepted, which covers drivers that hand DATE columns back that way; its
// calendar day is taken in the timestamp's own offset.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil && len(s) > len(DateLayout) {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	d := DateOf(t)
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return d.UnmarshalText([]byte(s))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if y := d.Year(); y < MinYear || y > MaxYear {
		return &ValidationError{Field: "date", Err: ErrDateOutOfRange}
	}
	return nil
}

// Normalize trims free-text fields and drops any time component from the date.
func (in ExpenseInput) Normalize() ExpenseInput {
	out := in
	out.Category = strings.TrimSpace(in.Category)
	out.Description = strings.TrimSpace(in.Description)
	if !in.Date.IsZero() {
		out.Date = DateOf(in.Date.Time)
	}
	return out
}

// Validate checks the invariants every stored expense must satisfy.
func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if in.Amount.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Err: ErrAmountTooLarge}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}

// Input returns the mutable fields of e.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
	}
}
