package models

import "time"

// InscriptionStatus tracks the review lifecycle of a workshop inscription.
type InscriptionStatus string

const (
	InscriptionPending              InscriptionStatus = "PENDING"
	InscriptionPendingExtraordinary InscriptionStatus = "PENDING_EXTRAORDINARY"
	InscriptionApproved             InscriptionStatus = "APPROVED"
	InscriptionRejected             InscriptionStatus = "REJECTED"
)

// Final reports whether no further review transition is allowed.
func (s InscriptionStatus) Final() bool {
	return s == InscriptionApproved || s == InscriptionRejected
}

// Workshop is a seat-limited recurring activity.
type Workshop struct {
	ID                    string     `db:"id" json:"id"`
	TenantID              string     `db:"tenant_id" json:"tenant_id"`
	Name                  string     `db:"name" json:"name"`
	Capacity              int        `db:"capacity" json:"capacity"`
	StartDate             *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate               *time.Time `db:"end_date" json:"end_date,omitempty"`
	InscriptionsOpen      bool       `db:"inscriptions_open" json:"inscriptions_open"`
	InscriptionsStartDate *time.Time `db:"inscriptions_start_date" json:"inscriptions_start_date,omitempty"`
}

// Unlimited reports whether the workshop has no seat ceiling.
func (w Workshop) Unlimited() bool {
	return w.Capacity <= 0
}

// AcceptingAt reports whether inscriptions are open at now.
func (w Workshop) AcceptingAt(now time.Time) bool {
	if !w.InscriptionsOpen {
		return false
	}
	return w.InscriptionsStartDate == nil || !w.InscriptionsStartDate.After(now)
}

// Inscription enrolls one actor into one workshop.
type Inscription struct {
	ID         string            `db:"id" json:"id"`
	TenantID   string            `db:"tenant_id" json:"tenant_id"`
	WorkshopID string            `db:"workshop_id" json:"workshop_id"`
	UserID     string            `db:"user_id" json:"user_id"`
	Status     InscriptionStatus `db:"status" json:"status"`
	ReviewedBy *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// EnrollRequest asks for a seat, optionally through the extraordinary path.
type EnrollRequest struct {
	WantsExtraordinary bool `json:"wants_extraordinary"`
}
