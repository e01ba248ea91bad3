package models

import "time"

// OccurrenceSource tells where a calendar entry comes from.
type OccurrenceSource string

const (
	SourceReservation OccurrenceSource = "RESERVATION"
	SourceBlock       OccurrenceSource = "BLOCK"
)

// CalendarOccurrence is one entry of a resource calendar.
type CalendarOccurrence struct {
	Source     OccurrenceSource   `json:"source"`
	SourceID   string             `json:"source_id"`
	Title      string             `json:"title,omitempty"`
	Resource   ResourceRef        `json:"resource"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    time.Time          `json:"end_time"`
	Status     *ReservationStatus `json:"status,omitempty"`
	Overridden bool               `json:"overridden,omitempty"`
}

// OccurrenceQuery selects the calendar window for a resource.
type OccurrenceQuery struct {
	Resource    ResourceRef
	WindowStart time.Time
	WindowEnd   time.Time
}
