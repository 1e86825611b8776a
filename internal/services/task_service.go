package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/logging"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
)

// CreateTaskInput carries the customer-supplied fields for a new task.
type CreateTaskInput struct {
	Title         string
	Description   string
	CategoryID    primitive.ObjectID
	SubcategoryID *primitive.ObjectID
	Address       string
	Latitude      *float64
	Longitude     *float64
	RequiredAt    *time.Time
	Duration      string
	IsUrgent      bool
	Images        []string
	Budget        float64
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	CategoryID    *primitive.ObjectID
	SubcategoryID *primitive.ObjectID
	Address       *string
	Latitude      *float64
	Longitude     *float64
	RequiredAt    *time.Time
	Duration      *string
	IsUrgent      *bool
	Images        []string
	Budget        *float64
}

// TaskService owns the task lifecycle state machine.
type TaskService interface {
	Create(ctx context.Context, actor authz.Actor, input CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, actor *authz.Actor, filter models.TaskFilter) ([]models.TaskWithBid, error)
	Update(ctx context.Context, actor authz.Actor, id primitive.ObjectID, input UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error

	Assign(ctx context.Context, actor authz.Actor, id, taskerID primitive.ObjectID) (*models.Task, error)
	Start(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Task, error)
	RequestCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, note string) (*models.Task, error)
	ConfirmCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, feedback string) (*models.Task, error)
	RejectCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, reason string) (*models.Task, error)
	Cancel(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Task, error)
}

type taskService struct {
	tasks      repositories.TaskRepository
	bids       repositories.BidRepository
	categories repositories.CategoryRepository
	users      repositories.UserRepository
	fees       FeeService
	notifier   NotificationService
}

func NewTaskService(
	tasks repositories.TaskRepository,
	bids repositories.BidRepository,
	categories repositories.CategoryRepository,
	users repositories.UserRepository,
	fees FeeService,
	notifier NotificationService,
) TaskService {
	return &taskService{
		tasks:      tasks,
		bids:       bids,
		categories: categories,
		users:      users,
		fees:       fees,
		notifier:   notifier,
	}
}

func (s *taskService) Create(ctx context.Context, actor authz.Actor, input CreateTaskInput) (*models.Task, error) {
	if !actor.IsCustomer() && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only customers can post tasks")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.Validation("title is required")
	}
	if input.Budget <= 0 {
		return nil, apperrors.Validation("budget must be positive, got %v", input.Budget)
	}

	ok, err := s.categories.Exists(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validation("category %s does not exist", input.CategoryID.Hex())
	}
	if input.SubcategoryID != nil {
		child, err := s.categories.IsChildOf(ctx, *input.SubcategoryID, input.CategoryID)
		if err != nil {
			return nil, err
		}
		if !child {
			return nil, apperrors.Validation("subcategory %s is not a child of category %s",
				input.SubcategoryID.Hex(), input.CategoryID.Hex())
		}
	}

	policy, err := s.fees.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		CustomerID:    actor.ID,
		Title:         input.Title,
		Description:   input.Description,
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		Address:       input.Address,
		RequiredAt:    input.RequiredAt,
		Duration:      input.Duration,
		IsUrgent:      input.IsUrgent,
		Images:        input.Images,
		Budget:        input.Budget,
		Fees:          ComputeFees(input.Budget, policy),
		Status:        models.StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Latitude != nil && input.Longitude != nil {
		task.Location = &models.GeoPoint{
			Type:        "Point",
			Coordinates: []float64{*input.Longitude, *input.Latitude},
		}
	}

	if err := s.tasks.Store(ctx, task); err != nil {
		return nil, err
	}
	logging.Logger.Infof("[task][create][ok] id=%s customer=%s budget=%v", task.ID.Hex(), actor.ID.Hex(), task.Budget)
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NotFound("task %s not found", id.Hex())
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, actor *authz.Actor, filter models.TaskFilter) ([]models.TaskWithBid, error) {
	tasks, err := s.tasks.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	annotate := actor != nil && actor.IsTasker()
	out := make([]models.TaskWithBid, 0, len(tasks))
	for _, task := range tasks {
		item := models.TaskWithBid{Task: task}
		if annotate {
			bid, err := s.bids.FindByTaskAndTasker(ctx, task.ID, actor.ID)
			if err != nil {
				return nil, err
			}
			if bid != nil {
				item.HasBid = true
				item.MyBid = bid
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *taskService) Update(ctx context.Context, actor authz.Actor, id primitive.ObjectID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionUpdateTask) {
		return nil, apperrors.Forbidden("not allowed to update this task")
	}
	if task.Status != models.StatusOpen && !actor.IsAdmin() {
		return nil, apperrors.InvalidState("task can only be edited while open, current status is %q", task.Status)
	}

	if input.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.Validation("category %s does not exist", input.CategoryID.Hex())
		}
		task.CategoryID = *input.CategoryID
		task.SubcategoryID = nil
	}
	if input.SubcategoryID != nil {
		child, err := s.categories.IsChildOf(ctx, *input.SubcategoryID, task.CategoryID)
		if err != nil {
			return nil, err
		}
		if !child {
			return nil, apperrors.Validation("subcategory %s is not a child of category %s",
				input.SubcategoryID.Hex(), task.CategoryID.Hex())
		}
		task.SubcategoryID = input.SubcategoryID
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.Validation("title is required")
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Address != nil {
		task.Address = *input.Address
	}
	if input.Latitude != nil && input.Longitude != nil {
		task.Location = &models.GeoPoint{
			Type:        "Point",
			Coordinates: []float64{*input.Longitude, *input.Latitude},
		}
	}
	if input.RequiredAt != nil {
		task.RequiredAt = input.RequiredAt
	}
	if input.Duration != nil {
		task.Duration = *input.Duration
	}
	if input.IsUrgent != nil {
		task.IsUrgent = *input.IsUrgent
	}
	if input.Images != nil {
		task.Images = input.Images
	}

	if input.Budget != nil && *input.Budget != task.Budget {
		if *input.Budget <= 0 {
			return nil, apperrors.Validation("budget must be positive, got %v", *input.Budget)
		}
		// budget edits re-snapshot against the live policy, same as creation
		policy, err := s.fees.CurrentPolicy(ctx)
		if err != nil {
			return nil, err
		}
		task.Budget = *input.Budget
		task.Fees = ComputeFees(*input.Budget, policy)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionDeleteTask) {
		return apperrors.Forbidden("not allowed to delete this task")
	}
	if task.Status != models.StatusOpen && !actor.IsAdmin() {
		return apperrors.InvalidState("task can only be deleted while open, current status is %q", task.Status)
	}
	return s.tasks.Delete(ctx, id)
}

// Assign moves an open task to assigned for the given tasker. When the tasker
// has a pending bid on the task it is accepted and its siblings rejected, so
// direct assignment and bid acceptance leave the ledger in the same shape.
func (s *taskService) Assign(ctx context.Context, actor authz.Actor, id, taskerID primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionAssignTask) {
		return nil, apperrors.Forbidden("not allowed to assign this task")
	}
	if task.Status != models.StatusOpen {
		return nil, apperrors.InvalidState("cannot assign task in status %q, must be %q", task.Status, models.StatusOpen)
	}

	tasker, err := s.users.GetByID(ctx, taskerID)
	if err != nil {
		return nil, err
	}
	if tasker == nil || tasker.Role != models.RoleTasker {
		return nil, apperrors.Validation("user %s is not a tasker", taskerID.Hex())
	}

	ok, err := s.tasks.AssignIfOpen(ctx, id, taskerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// a concurrent accept or cancel won the race
		return nil, apperrors.InvalidState("task %s is already assigned", id.Hex())
	}

	if bid, err := s.bids.FindByTaskAndTasker(ctx, id, taskerID); err == nil && bid != nil && bid.Status == models.BidPending {
		bid.Status = models.BidAccepted
		if err := s.bids.Update(ctx, bid); err != nil {
			logging.Logger.Errorf("[task][assign][err] accept bid id=%s: %v", bid.ID.Hex(), err)
		}
		if err := s.bids.RejectSiblings(ctx, id, bid.ID); err != nil {
			logging.Logger.Errorf("[task][assign][err] reject siblings task=%s: %v", id.Hex(), err)
		}
	}

	task, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(&models.Notification{
		RecipientID: taskerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyTaskAssigned,
		Title:       "You have been assigned a task",
		Message:     "You were assigned to \"" + task.Title + "\".",
		TaskID:      &task.ID,
	})
	logging.Logger.Infof("[task][assign][ok] id=%s tasker=%s", id.Hex(), taskerID.Hex())
	return task, nil
}

func (s *taskService) Start(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionStartTask) {
		return nil, apperrors.Forbidden("only the assigned tasker can start this task")
	}
	if !CanTransitionTask(task.Status, models.StatusInProgress) {
		return nil, apperrors.InvalidState("cannot start task: transition from %q to %q is not allowed",
			task.Status, models.StatusInProgress)
	}

	now := time.Now()
	task.Status = models.StatusInProgress
	task.StartedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.syncWinningBid(ctx, task.ID, models.BidAccepted, models.BidInProgress)

	s.notifier.Emit(&models.Notification{
		RecipientID: task.CustomerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyTaskStarted,
		Title:       "Work has started",
		Message:     "The tasker started working on \"" + task.Title + "\".",
		TaskID:      &task.ID,
	})
	return task, nil
}

func (s *taskService) RequestCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, note string) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionRequestCompletion) {
		return nil, apperrors.Forbidden("only the assigned tasker can request completion")
	}
	if !CanTransitionTask(task.Status, models.StatusCompletionRequested) {
		return nil, apperrors.InvalidState("cannot request completion: transition from %q to %q is not allowed",
			task.Status, models.StatusCompletionRequested)
	}

	now := time.Now()
	task.Status = models.StatusCompletionRequested
	task.CompletionRequestedAt = &now
	task.CompletionRequestedBy = &actor.ID
	task.CompletionNote = note
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.notifier.Emit(&models.Notification{
		RecipientID: task.CustomerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyCompletionRequested,
		Title:       "Completion requested",
		Message:     "The tasker marked \"" + task.Title + "\" as done and is waiting for your confirmation.",
		TaskID:      &task.ID,
	})
	return task, nil
}

func (s *taskService) ConfirmCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, feedback string) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionConfirmCompletion) {
		return nil, apperrors.Forbidden("only the task owner can confirm completion")
	}
	if !CanTransitionTask(task.Status, models.StatusCompleted) {
		return nil, apperrors.InvalidState("cannot confirm completion: transition from %q to %q is not allowed",
			task.Status, models.StatusCompleted)
	}

	now := time.Now()
	task.Status = models.StatusCompleted
	task.CompletedAt = &now
	task.CustomerFeedback = feedback
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if task.AssignedTo != nil {
		if err := s.users.IncCompletedTasks(ctx, *task.AssignedTo); err != nil {
			logging.Logger.Errorf("[task][complete][err] inc completed counter tasker=%s: %v", task.AssignedTo.Hex(), err)
		}
	}
	s.syncWinningBid(ctx, task.ID, models.BidInProgress, models.BidCompleted)

	if task.AssignedTo != nil {
		s.notifier.Emit(&models.Notification{
			RecipientID: *task.AssignedTo,
			SenderID:    &actor.ID,
			Type:        models.NotifyTaskCompleted,
			Title:       "Task completed",
			Message:     "The customer confirmed completion of \"" + task.Title + "\".",
			TaskID:      &task.ID,
		})
	}
	logging.Logger.Infof("[task][complete][ok] id=%s", id.Hex())
	return task, nil
}

func (s *taskService) RejectCompletion(ctx context.Context, actor authz.Actor, id primitive.ObjectID, reason string) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionRejectCompletion) {
		return nil, apperrors.Forbidden("only the task owner can reject completion")
	}
	if !CanTransitionTask(task.Status, models.StatusInProgress) {
		return nil, apperrors.InvalidState("cannot reject completion: transition from %q to %q is not allowed",
			task.Status, models.StatusInProgress)
	}

	task.Status = models.StatusInProgress
	task.CompletionRequestedAt = nil
	task.CompletionRequestedBy = nil
	task.CompletionNote = ""
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if task.AssignedTo != nil {
		message := "The customer rejected the completion request for \"" + task.Title + "\"."
		if reason != "" {
			message += " Reason: " + reason
		}
		s.notifier.Emit(&models.Notification{
			RecipientID: *task.AssignedTo,
			SenderID:    &actor.ID,
			Type:        models.NotifyCompletionRejected,
			Title:       "Completion rejected",
			Message:     message,
			TaskID:      &task.ID,
		})
	}
	return task, nil
}

func (s *taskService) Cancel(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionCancelTask) {
		return nil, apperrors.Forbidden("not allowed to cancel this task")
	}
	if !CanTransitionTask(task.Status, models.StatusCancelled) {
		return nil, apperrors.InvalidState("cannot cancel task: transition from %q to %q is not allowed",
			task.Status, models.StatusCancelled)
	}

	priorStatus := task.Status
	assignee := task.AssignedTo

	// A cancelled task is unassigned, the assignee reference only lives on
	// active and completed tasks.
	task.Status = models.StatusCancelled
	task.AssignedTo = nil
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if assignee != nil {
		bidFrom := models.BidAccepted
		if priorStatus == models.StatusInProgress {
			bidFrom = models.BidInProgress
		}
		s.syncWinningBid(ctx, task.ID, bidFrom, models.BidCancelled)

		s.notifier.Emit(&models.Notification{
			RecipientID: *assignee,
			SenderID:    &actor.ID,
			Type:        models.NotifyTaskCancelled,
			Title:       "Task cancelled",
			Message:     "\"" + task.Title + "\" was cancelled by the customer.",
			TaskID:      &task.ID,
		})
	}
	logging.Logger.Infof("[task][cancel][ok] id=%s", id.Hex())
	return task, nil
}

// syncWinningBid keeps the winning bid's status in step with the task.
func (s *taskService) syncWinningBid(ctx context.Context, taskID primitive.ObjectID, from, to models.BidStatus) {
	bids, err := s.bids.FindByTaskAndStatus(ctx, taskID, from)
	if err != nil {
		logging.Logger.Warnf("[task][bid-sync][err] task=%s: %v", taskID.Hex(), err)
		return
	}
	for i := range bids {
		bids[i].Status = to
		if err := s.bids.Update(ctx, &bids[i]); err != nil {
			logging.Logger.Warnf("[task][bid-sync][err] bid=%s: %v", bids[i].ID.Hex(), err)
		}
	}
}
