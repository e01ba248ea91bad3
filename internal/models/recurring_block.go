package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/booking-engine-api/internal/recurrence"
)

// RecurringBlock occupies resources on a weekly pattern between two dates.
type RecurringBlock struct {
	ID          string        `db:"id" json:"id"`
	TenantID    string        `db:"tenant_id" json:"tenant_id"`
	Title       string        `db:"title" json:"title"`
	Description *string       `db:"description" json:"description,omitempty"`
	DaysOfWeek  pq.Int64Array `db:"days_of_week" json:"days_of_week"`
	StartTime   string        `db:"start_time" json:"start_time"`
	EndTime     string        `db:"end_time" json:"end_time"`
	StartDate   time.Time     `db:"start_date" json:"start_date"`
	EndDate     time.Time     `db:"end_date" json:"end_date"`
	Visible     bool          `db:"is_visible" json:"is_visible"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
	Resources   []ResourceRef `db:"-" json:"resources"`
}

// Rule converts the stored template into a recurrence rule.
func (b RecurringBlock) Rule() (recurrence.Rule, error) {
	start, err := recurrence.ParseClock(b.StartTime)
	if err != nil {
		return recurrence.Rule{}, err
	}
	end, err := recurrence.ParseClock(b.EndTime)
	if err != nil {
		return recurrence.Rule{}, err
	}
	days := make([]time.Weekday, len(b.DaysOfWeek))
	for i, d := range b.DaysOfWeek {
		days[i] = time.Weekday(d)
	}
	rule := recurrence.Rule{StartDate: b.StartDate, EndDate: b.EndDate, Weekdays: days, StartTime: start, EndTime: end}
	if err := rule.Validate(); err != nil {
		return recurrence.Rule{}, fmt.Errorf("block %s: %w", b.ID, err)
	}
	return rule, nil
}

// RecurringBlockException overrides one occurrence date of a block.
type RecurringBlockException struct {
	ID            string    `db:"id" json:"id"`
	BlockID       string    `db:"block_id" json:"block_id"`
	ExceptionDate time.Time `db:"exception_date" json:"exception_date"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ToRecurrence converts the stored override for the expander.
func (e RecurringBlockException) ToRecurrence() (recurrence.Exception, error) {
	start, err := recurrence.ParseClock(e.StartTime)
	if err != nil {
		return recurrence.Exception{}, err
	}
	end, err := recurrence.ParseClock(e.EndTime)
	if err != nil {
		return recurrence.Exception{}, err
	}
	return recurrence.Exception{Date: e.ExceptionDate, StartTime: start, EndTime: end}, nil
}

// RecurringBlockRequest creates or replaces a block. Dates use YYYY-MM-DD and times HH:MM.
type RecurringBlockRequest struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=2000"`
	DaysOfWeek  []int         `json:"days_of_week" validate:"required,min=1,dive,min=0,max=6"`
	StartTime   string        `json:"start_time" validate:"required"`
	EndTime     string        `json:"end_time" validate:"required"`
	StartDate   string        `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string        `json:"end_date" validate:"required,datetime=2006-01-02"`
	Visible     *bool         `json:"is_visible,omitempty"`
	Resources   []ResourceRef `json:"resources" validate:"required,min=1,dive"`
}

// RecurringBlockFilter narrows block listings.
type RecurringBlockFilter struct {
	Resource    *ResourceRef
	VisibleOnly bool
}

// ExceptionRequest adds a per-date override.
type ExceptionRequest struct {
	ExceptionDate string `json:"exception_date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
}

// BlockConflict describes the first reservation clashing with a block occurrence.
type BlockConflict struct {
	OccurrenceStart time.Time   `json:"occurrence_start"`
	OccurrenceEnd   time.Time   `json:"occurrence_end"`
	Resource        ResourceRef `json:"resource"`
	ReservationID   string      `json:"reservation_id"`
}
