package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskhive/internal/models"
)

func TestTaskTransitions(t *testing.T) {
	allowed := []struct {
		from, to models.TaskStatus
	}{
		{models.StatusOpen, models.StatusAssigned},
		{models.StatusOpen, models.StatusCancelled},
		{models.StatusAssigned, models.StatusInProgress},
		{models.StatusAssigned, models.StatusCancelled},
		{models.StatusInProgress, models.StatusCompletionRequested},
		{models.StatusInProgress, models.StatusCancelled},
		{models.StatusCompletionRequested, models.StatusCompleted},
		{models.StatusCompletionRequested, models.StatusInProgress},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitionTask(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to models.TaskStatus
	}{
		{models.StatusOpen, models.StatusInProgress},
		{models.StatusOpen, models.StatusCompleted},
		{models.StatusAssigned, models.StatusCompleted},
		{models.StatusAssigned, models.StatusCompletionRequested},
		{models.StatusCompleted, models.StatusCancelled},
		{models.StatusCompleted, models.StatusOpen},
		{models.StatusCancelled, models.StatusOpen},
		{models.StatusCompletionRequested, models.StatusCancelled},
	}
	for _, tc := range denied {
		assert.False(t, CanTransitionTask(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []models.TaskStatus{
		models.StatusOpen, models.StatusAssigned, models.StatusInProgress,
		models.StatusCompletionRequested, models.StatusCompleted, models.StatusCancelled,
	}
	for _, to := range all {
		assert.False(t, CanTransitionTask(models.StatusCompleted, to))
		assert.False(t, CanTransitionTask(models.StatusCancelled, to))
	}
}
