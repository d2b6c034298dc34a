package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vietqa/accred-api/internal/models"
)

func TestTaskMachineAllowed(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.TaskStatusPending, models.TaskStatusInProgress, true},
		{models.TaskStatusPending, models.TaskStatusCancelled, true},
		{models.TaskStatusPending, models.TaskStatusSubmitted, false},
		{models.TaskStatusPending, models.TaskStatusCompleted, false},
		{models.TaskStatusInProgress, models.TaskStatusSubmitted, true},
		{models.TaskStatusInProgress, models.TaskStatusCancelled, true},
		{models.TaskStatusInProgress, models.TaskStatusCompleted, false},
		{models.TaskStatusSubmitted, models.TaskStatusInProgress, true},
		{models.TaskStatusSubmitted, models.TaskStatusCompleted, true},
		{models.TaskStatusSubmitted, models.TaskStatusRejected, true},
		{models.TaskStatusSubmitted, models.TaskStatusCancelled, false},
		{models.TaskStatusRejected, models.TaskStatusInProgress, true},
		{models.TaskStatusRejected, models.TaskStatusCancelled, true},
		{models.TaskStatusRejected, models.TaskStatusCompleted, false},
		{models.TaskStatusCompleted, models.TaskStatusInProgress, true},
		{models.TaskStatusCompleted, models.TaskStatusCancelled, false},
		{models.TaskStatusCancelled, models.TaskStatusPending, false},
		{models.TaskStatusCancelled, models.TaskStatusInProgress, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, TaskMachine.Allowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.Empty(t, TaskMachine.Targets(models.TaskStatusCancelled))
}

func TestSubmitSources(t *testing.T) {
	assert.True(t, SubmitSources[models.TaskStatusPending])
	assert.True(t, SubmitSources[models.TaskStatusInProgress])
	assert.True(t, SubmitSources[models.TaskStatusRejected])
	assert.False(t, SubmitSources[models.TaskStatusSubmitted])
	assert.False(t, SubmitSources[models.TaskStatusCompleted])
	assert.False(t, SubmitSources[models.TaskStatusCancelled])
}

func TestReviewTargets(t *testing.T) {
	assert.True(t, ReviewTargets[models.TaskStatusCompleted])
	assert.True(t, ReviewTargets[models.TaskStatusRejected])
	assert.False(t, ReviewTargets[models.TaskStatusInProgress])
	assert.False(t, ReviewTargets[models.TaskStatusCancelled])
}
