package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	cases := []struct {
		name     string
		statuses []ReservationStatus
		want     AggregateStatus
	}{
		{"all approved", []ReservationStatus{ReservationApproved, ReservationApproved}, AggregateApproved},
		{"all rejected", []ReservationStatus{ReservationRejected, ReservationRejected}, AggregateRejected},
		{"all pending", []ReservationStatus{ReservationPending, ReservationPending, ReservationPending}, AggregatePending},
		{"approved and rejected", []ReservationStatus{ReservationApproved, ReservationRejected}, AggregatePartiallyApproved},
		{"pending and approved", []ReservationStatus{ReservationPending, ReservationApproved}, AggregatePartiallyApproved},
		{"single approved", []ReservationStatus{ReservationApproved}, AggregateApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Aggregate(tc.statuses))
		})
	}
}

func TestParseResourceType(t *testing.T) {
	rt, err := ParseResourceType("spaces")
	require.NoError(t, err)
	assert.Equal(t, ResourceSpace, rt)

	rt, err = ParseResourceType("Equipment")
	require.NoError(t, err)
	assert.Equal(t, ResourceEquipment, rt)
	assert.True(t, rt.Schedulable())
	assert.False(t, ResourceWorkshop.Schedulable())

	_, err = ParseResourceType("room")
	require.Error(t, err)
}

func TestSortRefsDeduplicates(t *testing.T) {
	refs := SortRefs([]ResourceRef{
		{Type: ResourceSpace, ID: "b"},
		{Type: ResourceEquipment, ID: "z"},
		{Type: ResourceSpace, ID: "b"},
		{Type: ResourceEquipment, ID: "a"},
	})
	require.Len(t, refs, 3)
	assert.Equal(t, "EQUIPMENT:a", refs[0].Key())
	assert.Equal(t, "EQUIPMENT:z", refs[1].Key())
	assert.Equal(t, "SPACE:b", refs[2].Key())
}

func TestWorkshopAcceptingAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)

	assert.False(t, Workshop{InscriptionsOpen: false}.AcceptingAt(now))
	assert.True(t, Workshop{InscriptionsOpen: true}.AcceptingAt(now))
	assert.False(t, Workshop{InscriptionsOpen: true, InscriptionsStartDate: &later}.AcceptingAt(now))
	assert.True(t, Workshop{InscriptionsOpen: true, InscriptionsStartDate: &now}.AcceptingAt(now))
}

func TestRecurringBlockRule(t *testing.T) {
	block := RecurringBlock{
		ID:         "b1",
		DaysOfWeek: []int64{1, 3},
		StartTime:  "09:00:00",
		EndTime:    "11:00",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	rule, err := block.Rule()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, rule.Weekdays)

	block.EndTime = "08:00"
	_, err = block.Rule()
	require.Error(t, err)
}

func TestCallerValidate(t *testing.T) {
	assert.NoError(t, Caller{Tenant: "t1", ActorID: "u1", Role: RoleUser}.Validate())
	assert.ErrorIs(t, Caller{ActorID: "u1", Role: RoleUser}.Validate(), ErrMissingCaller)
	assert.ErrorIs(t, Caller{Tenant: "t1", ActorID: "u1", Role: "ROOT"}.Validate(), ErrMissingCaller)
}
