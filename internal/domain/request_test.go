package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{RequestStatusPending, RequestStatusInProgress, true},
		{RequestStatusPending, RequestStatusCompleted, false},
		{RequestStatusPending, RequestStatusRejected, false},
		{RequestStatusInProgress, RequestStatusCompleted, true},
		{RequestStatusInProgress, RequestStatusRejected, true},
		{RequestStatusInProgress, RequestStatusPending, false},
		{RequestStatusCompleted, RequestStatusReturned, true},
		{RequestStatusCompleted, RequestStatusInProgress, false},
		{RequestStatusReturned, RequestStatusInProgress, true},
		{RequestStatusReturned, RequestStatusCompleted, true},
		{RequestStatusReturned, RequestStatusRejected, false},
		{RequestStatusRejected, RequestStatusPending, false},
		{RequestStatusRejected, RequestStatusInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, IsValidTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestValidStatusAndPriority(t *testing.T) {
	assert.True(t, ValidStatus(RequestStatusPending))
	assert.False(t, ValidStatus("OPEN"))
	assert.True(t, ValidPriority(RequestPriorityCritical))
	assert.False(t, ValidPriority("URGENT"))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleDeveloper, NormalizeRole("DEVELOPER"))
	assert.Equal(t, RoleEmployee, NormalizeRole("EMPLOYEE"))
	assert.Equal(t, RoleEmployee, NormalizeRole("ARCHITECT"))
	assert.Equal(t, RoleEmployee, NormalizeRole(""))
}

func TestSubmissionCountDerived(t *testing.T) {
	request := AutomationRequest{}
	assert.Equal(t, 0, request.SubmissionCount())

	request.SubmissionEvents = []SubmissionEvent{
		{EventType: EventTypeSubmission},
		{EventType: EventTypeResubmission},
	}
	assert.Equal(t, 2, request.SubmissionCount())
}
