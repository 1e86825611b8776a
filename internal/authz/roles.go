package authz

import (
	"taskhive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the already-authenticated identity attached to every command.
type Actor struct {
	ID    primitive.ObjectID
	Role  models.Role
	Name  string
	Email string
}

func (a Actor) IsAdmin() bool    { return a.Role == models.RoleAdmin }
func (a Actor) IsCustomer() bool { return a.Role == models.RoleCustomer }
func (a Actor) IsTasker() bool   { return a.Role == models.RoleTasker }

// TaskAction names an authorization-sensitive operation on a task.
type TaskAction string

const (
	ActionUpdateTask        TaskAction = "update"
	ActionDeleteTask        TaskAction = "delete"
	ActionAssignTask        TaskAction = "assign"
	ActionStartTask         TaskAction = "start"
	ActionRequestCompletion TaskAction = "request_completion"
	ActionConfirmCompletion TaskAction = "confirm_completion"
	ActionRejectCompletion  TaskAction = "reject_completion"
	ActionCancelTask        TaskAction = "cancel"
	ActionViewBids          TaskAction = "view_bids"
	ActionDecideBid         TaskAction = "decide_bid"
)

// CanActOnTask is the single capability predicate for task operations,
// evaluated once per command.
func CanActOnTask(actor Actor, task *models.Task, action TaskAction) bool {
	if task == nil {
		return false
	}
	isOwner := task.CustomerID == actor.ID
	isAssignee := task.AssignedTo != nil && *task.AssignedTo == actor.ID

	// admin override does not extend to requesting completion: only the
	// assigned tasker can claim the work is done
	if action == ActionRequestCompletion {
		return isAssignee
	}
	if actor.IsAdmin() {
		return true
	}

	switch action {
	case ActionUpdateTask, ActionDeleteTask, ActionAssignTask,
		ActionConfirmCompletion, ActionRejectCompletion, ActionCancelTask,
		ActionDecideBid:
		return isOwner
	case ActionStartTask:
		return isAssignee
	case ActionViewBids:
		// anyone may browse bids, contact redaction is handled separately
		return true
	}
	return false
}

// CanBid reports whether the actor may place bids at all.
func CanBid(actor Actor) bool {
	return actor.IsTasker() || actor.IsAdmin()
}

// CanSeeBidderContacts controls redaction of tasker emails in bid listings.
func CanSeeBidderContacts(actor Actor, task *models.Task) bool {
	return actor.IsAdmin() || (task != nil && task.CustomerID == actor.ID)
}
