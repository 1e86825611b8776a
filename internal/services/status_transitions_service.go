package services

import "taskhive/internal/models"

// TaskTransitions is the only authority on legal task status changes.
// cancelled is reachable from open/assigned/inProgress, never from completed.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusOpen:                {models.StatusAssigned: true, models.StatusCancelled: true},
	models.StatusAssigned:            {models.StatusInProgress: true, models.StatusCancelled: true},
	models.StatusInProgress:          {models.StatusCompletionRequested: true, models.StatusCancelled: true},
	models.StatusCompletionRequested: {models.StatusCompleted: true, models.StatusInProgress: true},
	models.StatusCompleted:           {},
	models.StatusCancelled:           {},
}

func CanTransitionTask(current, to models.TaskStatus) bool {
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
