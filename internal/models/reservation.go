package models

import (
	"time"

	"github.com/noah-isme/booking-engine-api/internal/interval"
)

// ReservationStatus tracks the review lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "PENDING"
	ReservationApproved ReservationStatus = "APPROVED"
	ReservationRejected ReservationStatus = "REJECTED"
)

// Blocking reports whether a reservation in this status occupies its slot.
func (s ReservationStatus) Blocking() bool {
	return s == ReservationPending || s == ReservationApproved
}

// Reservation books one resource for the half-open interval [StartTime, EndTime).
type Reservation struct {
	ResourceRef `json:"resource"`

	ID              string            `db:"id" json:"id"`
	TenantID        string            `db:"tenant_id" json:"tenant_id"`
	UserID          string            `db:"user_id" json:"user_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          ReservationStatus `db:"status" json:"status"`
	Title           *string           `db:"title" json:"title,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	RejectionReason *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	SubmissionID    *string           `db:"submission_id" json:"submission_id,omitempty"`
	DisplayID       *string           `db:"display_id" json:"display_id,omitempty"`
	CheckoutAt      *time.Time        `db:"checkout_at" json:"checkout_at,omitempty"`
	CheckinAt       *time.Time        `db:"checkin_at" json:"checkin_at,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// Interval returns the booked time range.
func (r Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.StartTime, End: r.EndTime}
}

// CreateReservationRequest is one booking submission covering one or more resources.
type CreateReservationRequest struct {
	Items     []ResourceRef `json:"items" validate:"required,min=1,dive"`
	StartTime time.Time     `json:"start_time" validate:"required"`
	EndTime   time.Time     `json:"end_time" validate:"required"`
	Title     *string       `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes     *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
	// Block creates the rows APPROVED; administrative callers only.
	Block bool `json:"block"`
}

// RejectReservationRequest carries the optional rejection reason.
type RejectReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// AggregateStatus is the derived status of a submission.
type AggregateStatus string

const (
	AggregatePending           AggregateStatus = "PENDING"
	AggregateApproved          AggregateStatus = "APPROVED"
	AggregateRejected          AggregateStatus = "REJECTED"
	AggregatePartiallyApproved AggregateStatus = "PARTIALLY_APPROVED"
)

// Aggregate derives the status of a submission from its items.
func Aggregate(statuses []ReservationStatus) AggregateStatus {
	if len(statuses) == 0 {
		return AggregatePending
	}
	first := statuses[0]
	for _, s := range statuses[1:] {
		if s != first {
			return AggregatePartiallyApproved
		}
	}
	switch first {
	case ReservationApproved:
		return AggregateApproved
	case ReservationRejected:
		return AggregateRejected
	default:
		return AggregatePending
	}
}

// Submission groups the reservations created by one booking action.
type Submission struct {
	ID        string          `json:"submission_id"`
	DisplayID string          `json:"display_id"`
	Status    AggregateStatus `json:"status"`
	Items     []Reservation   `json:"items"`
}

// NewSubmission builds a submission view and derives its status.
func NewSubmission(id, displayID string, items []Reservation) Submission {
	statuses := make([]ReservationStatus, len(items))
	for i, item := range items {
		statuses[i] = item.Status
	}
	return Submission{ID: id, DisplayID: displayID, Status: Aggregate(statuses), Items: items}
}
