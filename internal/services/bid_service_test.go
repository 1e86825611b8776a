package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/models"
)

type bidEnv struct {
	*taskEnv
	bidSvc  BidService
	taskerB authz.Actor
}

func newBidEnv(t *testing.T) *bidEnv {
	t.Helper()
	env := &bidEnv{taskEnv: newTaskEnv(t)}
	env.bidSvc = NewBidService(env.bids, env.tasks, env.users, env.notifier)

	taskerB := &models.User{Name: "Carol", Email: "carol@example.com", Role: models.RoleTasker}
	require.NoError(t, env.users.Create(context.Background(), taskerB))
	env.taskerB = authz.Actor{ID: taskerB.ID, Role: models.RoleTasker, Name: taskerB.Name, Email: taskerB.Email}
	return env
}

func (env *bidEnv) placeBid(t *testing.T, actor authz.Actor, task *models.Task, amount float64) *models.Bid {
	t.Helper()
	bid, err := env.bidSvc.Place(context.Background(), actor, PlaceBidInput{
		TaskID: task.ID,
		Amount: amount,
	})
	require.NoError(t, err)
	return bid
}

func TestPlaceBid(t *testing.T) {
	env := newBidEnv(t)
	task := env.createTask(t, 1000)

	bid := env.placeBid(t, env.tasker, task, 500)
	assert.Equal(t, models.BidPending, bid.Status)
	assert.Equal(t, env.tasker.ID, bid.TaskerID)

	notes := env.notifier.byType(models.NotifyNewBid)
	require.Len(t, notes, 1)
	assert.Equal(t, env.customer.ID, notes[0].RecipientID)
}

func TestPlaceBidGuards(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.bidSvc.Place(ctx, env.customer, PlaceBidInput{TaskID: task.ID, Amount: 500})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = env.bidSvc.Place(ctx, env.tasker, PlaceBidInput{TaskID: task.ID, Amount: -50})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	env.placeBid(t, env.tasker, task, 500)
	_, err = env.bidSvc.Place(ctx, env.tasker, PlaceBidInput{TaskID: task.ID, Amount: 450})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = env.svc.Assign(ctx, env.customer, task.ID, env.taskerB.ID)
	require.NoError(t, err)
	_, err = env.bidSvc.Place(ctx, env.taskerB, PlaceBidInput{TaskID: task.ID, Amount: 400})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestRebidAfterWithdrawStillConflicts(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	bid := env.placeBid(t, env.tasker, task, 500)
	_, err := env.bidSvc.Cancel(ctx, env.tasker, bid.ID)
	require.NoError(t, err)

	// a withdrawn bid still holds the one-bid-per-task slot
	_, err = env.bidSvc.Place(ctx, env.tasker, PlaceBidInput{TaskID: task.ID, Amount: 450})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	listed, err := env.bids.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.BidCancelled, listed[0].Status)

	// deleting the record frees the slot
	require.NoError(t, env.bidSvc.Delete(ctx, env.admin, bid.ID))
	again := env.placeBid(t, env.tasker, task, 450)
	assert.Equal(t, models.BidPending, again.Status)
}

func TestPendingBidsOnlyAreMutable(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)
	bid := env.placeBid(t, env.tasker, task, 500)

	amount := 450.0
	_, err := env.bidSvc.Update(ctx, env.tasker, bid.ID, UpdateBidInput{Amount: &amount})
	require.NoError(t, err)

	_, err = env.bidSvc.Accept(ctx, env.customer, bid.ID)
	require.NoError(t, err)

	_, err = env.bidSvc.Update(ctx, env.tasker, bid.ID, UpdateBidInput{Amount: &amount})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	_, err = env.bidSvc.Cancel(ctx, env.tasker, bid.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	err = env.bidSvc.Delete(ctx, env.tasker, bid.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestBidMutationIsOwnerOnly(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)
	bid := env.placeBid(t, env.tasker, task, 500)

	amount := 450.0
	_, err := env.bidSvc.Update(ctx, env.taskerB, bid.ID, UpdateBidInput{Amount: &amount})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	_, err = env.bidSvc.Cancel(ctx, env.taskerB, bid.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestAcceptBidRejectsSiblingsAndAssigns(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	bidA := env.placeBid(t, env.tasker, task, 500)
	bidB := env.placeBid(t, env.taskerB, task, 400)

	accepted, err := env.bidSvc.Accept(ctx, env.customer, bidB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidAccepted, accepted.Status)

	gotTask, err := env.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, gotTask.Status)
	require.NotNil(t, gotTask.AssignedTo)
	assert.Equal(t, env.taskerB.ID, *gotTask.AssignedTo)

	gotA, err := env.bids.FindByID(ctx, bidA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidRejected, gotA.Status)

	all, err := env.bids.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	acceptedCount := 0
	for _, b := range all {
		if b.Status == models.BidAccepted {
			acceptedCount++
		}
	}
	assert.Equal(t, 1, acceptedCount)

	notes := env.notifier.byType(models.NotifyBidAccepted)
	require.Len(t, notes, 1)
	assert.Equal(t, env.taskerB.ID, notes[0].RecipientID)
}

func TestAcceptBidLoserGetsInvalidState(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	bidA := env.placeBid(t, env.tasker, task, 500)
	bidB := env.placeBid(t, env.taskerB, task, 400)

	_, err := env.bidSvc.Accept(ctx, env.customer, bidB.ID)
	require.NoError(t, err)

	// bidA is already rejected; pretend a racing request saw it pending
	// by reloading before the sibling rejection lands
	_, err = env.bidSvc.Accept(ctx, env.customer, bidA.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAcceptBidIsOwnerOnly(t *testing.T) {
	env := newBidEnv(t)
	task := env.createTask(t, 1000)
	bid := env.placeBid(t, env.tasker, task, 500)

	_, err := env.bidSvc.Accept(context.Background(), env.taskerB, bid.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestRejectBid(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)
	bid := env.placeBid(t, env.tasker, task, 500)

	rejected, err := env.bidSvc.Reject(ctx, env.customer, bid.ID, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, models.BidRejected, rejected.Status)
	assert.Equal(t, "too expensive", rejected.RejectionReason)

	notes := env.notifier.byType(models.NotifyBidRejected)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "too expensive")
}

func TestListForTaskRedactsContacts(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)
	env.placeBid(t, env.tasker, task, 500)
	env.placeBid(t, env.taskerB, task, 400)

	asOwner, err := env.bidSvc.ListForTask(ctx, env.customer, task.ID)
	require.NoError(t, err)
	require.Len(t, asOwner, 2)
	// sorted by ascending amount
	assert.Equal(t, 400.0, asOwner[0].Amount)
	assert.Equal(t, 500.0, asOwner[1].Amount)
	for _, b := range asOwner {
		require.NotNil(t, b.Tasker)
		assert.NotEmpty(t, b.Tasker.Email)
	}

	asBidder, err := env.bidSvc.ListForTask(ctx, env.tasker, task.ID)
	require.NoError(t, err)
	for _, b := range asBidder {
		require.NotNil(t, b.Tasker)
		assert.Empty(t, b.Tasker.Email)
	}
}

func TestListForTaskerIsSelfOnly(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)
	env.placeBid(t, env.tasker, task, 500)

	own, err := env.bidSvc.ListForTasker(ctx, env.tasker, models.BidFilter{TaskerID: env.tasker.ID})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = env.bidSvc.ListForTasker(ctx, env.taskerB, models.BidFilter{TaskerID: env.tasker.ID})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestListForTaskerFiltersByTaskStatus(t *testing.T) {
	env := newBidEnv(t)
	ctx := context.Background()

	openTask := env.createTask(t, 1000)
	assignedTask := env.createTask(t, 800)
	env.placeBid(t, env.tasker, openTask, 500)
	accepted := env.placeBid(t, env.tasker, assignedTask, 400)
	_, err := env.bidSvc.Accept(ctx, env.customer, accepted.ID)
	require.NoError(t, err)

	open := models.StatusOpen
	onlyOpen, err := env.bidSvc.ListForTasker(ctx, env.tasker, models.BidFilter{
		TaskerID:   env.tasker.ID,
		TaskStatus: &open,
	})
	require.NoError(t, err)
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, openTask.ID, onlyOpen[0].TaskID)

	notOpen, err := env.bidSvc.ListForTasker(ctx, env.tasker, models.BidFilter{
		TaskerID:          env.tasker.ID,
		TaskStatus:        &open,
		TaskStatusNegated: true,
	})
	require.NoError(t, err)
	require.Len(t, notOpen, 1)
	assert.Equal(t, assignedTask.ID, notOpen[0].TaskID)
}
