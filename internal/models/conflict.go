package models

import "time"

// ConflictingReservation is an existing reservation overlapping a candidate.
type ConflictingReservation struct {
	ID        string            `json:"id"`
	Resource  ResourceRef       `json:"resource"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Status    ReservationStatus `json:"status"`
}

// ConflictingOccurrence is a recurring-block occurrence overlapping a candidate.
type ConflictingOccurrence struct {
	BlockID   string      `json:"block_id"`
	Title     string      `json:"title"`
	Resource  ResourceRef `json:"resource"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
}

// ConflictResult reports every clash found for a candidate interval. An empty result means no conflict.
type ConflictResult struct {
	Reservations []ConflictingReservation `json:"reservations"`
	Occurrences  []ConflictingOccurrence  `json:"block_occurrences"`
}

// HasConflict reports whether anything clashed.
func (r ConflictResult) HasConflict() bool {
	return len(r.Reservations) > 0 || len(r.Occurrences) > 0
}

// Merge appends other's conflicts to r.
func (r *ConflictResult) Merge(other ConflictResult) {
	r.Reservations = append(r.Reservations, other.Reservations...)
	r.Occurrences = append(r.Occurrences, other.Occurrences...)
}

// ReservationIDs lists the ids of conflicting reservations.
func (r ConflictResult) ReservationIDs() []string {
	ids := make([]string, 0, len(r.Reservations))
	for _, c := range r.Reservations {
		ids = append(ids, c.ID)
	}
	return ids
}
