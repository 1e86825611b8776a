package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/logging"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
)

// PlaceBidInput carries the tasker-supplied fields for a new bid.
type PlaceBidInput struct {
	TaskID            primitive.ObjectID
	Amount            float64
	Message           string
	EstimatedDuration string
}

// UpdateBidInput is a partial update; nil fields are left unchanged.
type UpdateBidInput struct {
	Amount            *float64
	Message           *string
	EstimatedDuration *string
}

// BidService owns the bid ledger: placing, editing, withdrawing and
// deciding bids. Accepting a bid hands over to the task assignment path.
type BidService interface {
	Place(ctx context.Context, actor authz.Actor, input PlaceBidInput) (*models.Bid, error)
	Update(ctx context.Context, actor authz.Actor, id primitive.ObjectID, input UpdateBidInput) (*models.Bid, error)
	Cancel(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Bid, error)
	Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error
	Accept(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Bid, error)
	Reject(ctx context.Context, actor authz.Actor, id primitive.ObjectID, reason string) (*models.Bid, error)
	ListForTask(ctx context.Context, actor authz.Actor, taskID primitive.ObjectID) ([]models.Bid, error)
	ListForTasker(ctx context.Context, actor authz.Actor, filter models.BidFilter) ([]models.Bid, error)
}

type bidService struct {
	bids     repositories.BidRepository
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	notifier NotificationService
}

func NewBidService(
	bids repositories.BidRepository,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	notifier NotificationService,
) BidService {
	return &bidService{bids: bids, tasks: tasks, users: users, notifier: notifier}
}

func (s *bidService) Place(ctx context.Context, actor authz.Actor, input PlaceBidInput) (*models.Bid, error) {
	if !authz.CanBid(actor) {
		return nil, apperrors.Forbidden("only taskers can place bids")
	}
	if input.Amount < 0 {
		return nil, apperrors.Validation("bid amount cannot be negative, got %v", input.Amount)
	}

	task, err := s.mustGetTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusOpen {
		return nil, apperrors.InvalidState("bids are only accepted on open tasks, task is %q", task.Status)
	}
	if task.CustomerID == actor.ID {
		return nil, apperrors.Forbidden("cannot bid on your own task")
	}

	existing, err := s.bids.FindByTaskAndTasker(ctx, input.TaskID, actor.ID)
	if err != nil {
		return nil, err
	}
	// One bid per (task, tasker); a withdrawn bid still occupies the slot,
	// only deleting the record frees it.
	if existing != nil {
		return nil, apperrors.Conflict("a bid on this task already exists")
	}

	now := time.Now()
	bid := &models.Bid{
		TaskID:            input.TaskID,
		TaskerID:          actor.ID,
		Amount:            input.Amount,
		Message:           input.Message,
		EstimatedDuration: input.EstimatedDuration,
		Status:            models.BidPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.bids.Store(ctx, bid); err != nil {
		return nil, err
	}

	s.notifier.Emit(&models.Notification{
		RecipientID: task.CustomerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyNewBid,
		Title:       "New bid on your task",
		Message:     actor.Name + " placed a bid on \"" + task.Title + "\".",
		TaskID:      &task.ID,
	})
	logging.Logger.Infof("[bid][place][ok] id=%s task=%s tasker=%s amount=%v",
		bid.ID.Hex(), task.ID.Hex(), actor.ID.Hex(), bid.Amount)
	return bid, nil
}

func (s *bidService) Update(ctx context.Context, actor authz.Actor, id primitive.ObjectID, input UpdateBidInput) (*models.Bid, error) {
	bid, err := s.mustGetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid.TaskerID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("not allowed to edit this bid")
	}
	if bid.Status != models.BidPending {
		return nil, apperrors.InvalidState("only pending bids can be edited, bid is %q", bid.Status)
	}

	if input.Amount != nil {
		if *input.Amount < 0 {
			return nil, apperrors.Validation("bid amount cannot be negative, got %v", *input.Amount)
		}
		bid.Amount = *input.Amount
	}
	if input.Message != nil {
		bid.Message = *input.Message
	}
	if input.EstimatedDuration != nil {
		bid.EstimatedDuration = *input.EstimatedDuration
	}

	if err := s.bids.Update(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *bidService) Cancel(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Bid, error) {
	bid, err := s.mustGetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid.TaskerID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("not allowed to withdraw this bid")
	}
	if bid.Status != models.BidPending {
		return nil, apperrors.InvalidState("only pending bids can be withdrawn, bid is %q", bid.Status)
	}

	bid.Status = models.BidCancelled
	if err := s.bids.Update(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *bidService) Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	bid, err := s.mustGetBid(ctx, id)
	if err != nil {
		return err
	}
	if bid.TaskerID != actor.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("not allowed to delete this bid")
	}
	if bid.Status != models.BidPending && !actor.IsAdmin() {
		return apperrors.InvalidState("only pending bids can be deleted, bid is %q", bid.Status)
	}
	return s.bids.Delete(ctx, id)
}

// Accept is the customer-side decision on a bid. The task assignment is a
// compare-and-set on the open status, so two concurrent accepts cannot both
// win; the loser observes the task as already assigned.
func (s *bidService) Accept(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Bid, error) {
	bid, err := s.mustGetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.mustGetTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionDecideBid) {
		return nil, apperrors.Forbidden("only the task owner can accept bids")
	}
	if bid.Status != models.BidPending {
		return nil, apperrors.InvalidState("only pending bids can be accepted, bid is %q", bid.Status)
	}

	ok, err := s.tasks.AssignIfOpen(ctx, task.ID, bid.TaskerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("task %s is no longer open", task.ID.Hex())
	}

	bid.Status = models.BidAccepted
	if err := s.bids.Update(ctx, bid); err != nil {
		return nil, err
	}
	if err := s.bids.RejectSiblings(ctx, task.ID, bid.ID); err != nil {
		logging.Logger.Errorf("[bid][accept][err] reject siblings task=%s: %v", task.ID.Hex(), err)
	}

	s.notifier.Emit(&models.Notification{
		RecipientID: bid.TaskerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyBidAccepted,
		Title:       "Your bid was accepted",
		Message:     "Your bid on \"" + task.Title + "\" was accepted.",
		TaskID:      &task.ID,
	})
	s.notifyLosers(ctx, task, bid.ID, actor.ID)

	logging.Logger.Infof("[bid][accept][ok] id=%s task=%s tasker=%s", bid.ID.Hex(), task.ID.Hex(), bid.TaskerID.Hex())
	return bid, nil
}

func (s *bidService) Reject(ctx context.Context, actor authz.Actor, id primitive.ObjectID, reason string) (*models.Bid, error) {
	bid, err := s.mustGetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.mustGetTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionDecideBid) {
		return nil, apperrors.Forbidden("only the task owner can reject bids")
	}
	if bid.Status != models.BidPending {
		return nil, apperrors.InvalidState("only pending bids can be rejected, bid is %q", bid.Status)
	}

	bid.Status = models.BidRejected
	bid.RejectionReason = reason
	if err := s.bids.Update(ctx, bid); err != nil {
		return nil, err
	}

	message := "Your bid on \"" + task.Title + "\" was rejected."
	if reason != "" {
		message += " Reason: " + reason
	}
	s.notifier.Emit(&models.Notification{
		RecipientID: bid.TaskerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyBidRejected,
		Title:       "Your bid was rejected",
		Message:     message,
		TaskID:      &task.ID,
	})
	return bid, nil
}

// ListForTask returns a task's bids with bidder summaries attached. Contact
// details are only visible to the task owner and admins.
func (s *bidService) ListForTask(ctx context.Context, actor authz.Actor, taskID primitive.ObjectID) ([]models.Bid, error) {
	task, err := s.mustGetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanActOnTask(actor, task, authz.ActionViewBids) {
		return nil, apperrors.Forbidden("not allowed to view bids on this task")
	}

	bids, err := s.bids.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	showContacts := authz.CanSeeBidderContacts(actor, task)
	for i := range bids {
		user, err := s.users.GetByID(ctx, bids[i].TaskerID)
		if err != nil || user == nil {
			continue
		}
		summary := &models.TaskerSummary{
			ID:             user.ID,
			Name:           user.Name,
			AverageRating:  user.AverageRating,
			TotalReviews:   user.TotalReviews,
			CompletedTasks: user.CompletedTasks,
		}
		if showContacts {
			summary.Email = user.Email
		}
		bids[i].Tasker = summary
	}
	return bids, nil
}

func (s *bidService) ListForTasker(ctx context.Context, actor authz.Actor, filter models.BidFilter) ([]models.Bid, error) {
	if filter.TaskerID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("not allowed to view another tasker's bids")
	}
	return s.bids.ListByTasker(ctx, filter)
}

func (s *bidService) notifyLosers(ctx context.Context, task *models.Task, acceptedBidID, senderID primitive.ObjectID) {
	bids, err := s.bids.FindByTaskAndStatus(ctx, task.ID, models.BidRejected)
	if err != nil {
		logging.Logger.Warnf("[bid][accept][err] list rejected bids task=%s: %v", task.ID.Hex(), err)
		return
	}
	for i := range bids {
		if bids[i].ID == acceptedBidID {
			continue
		}
		s.notifier.Emit(&models.Notification{
			RecipientID: bids[i].TaskerID,
			SenderID:    &senderID,
			Type:        models.NotifyBidRejected,
			Title:       "Your bid was rejected",
			Message:     "Another bid on \"" + task.Title + "\" was accepted.",
			TaskID:      &task.ID,
		})
	}
}

func (s *bidService) mustGetBid(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	bid, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, apperrors.NotFound("bid %s not found", id.Hex())
	}
	return bid, nil
}

func (s *bidService) mustGetTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NotFound("task %s not found", id.Hex())
	}
	return task, nil
}
