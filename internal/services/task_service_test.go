package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/models"
)

type taskEnv struct {
	tasks      *fakeTaskRepo
	bids       *fakeBidRepo
	categories *fakeCategoryRepo
	users      *fakeUserRepo
	fees       FeeService
	notifier   *recordingNotifier
	svc        TaskService

	customer   authz.Actor
	tasker     authz.Actor
	admin      authz.Actor
	categoryID primitive.ObjectID
}

func newTaskEnv(t *testing.T) *taskEnv {
	t.Helper()
	env := &taskEnv{
		tasks:      newFakeTaskRepo(),
		categories: newFakeCategoryRepo(),
		users:      newFakeUserRepo(),
		notifier:   &recordingNotifier{},
	}
	env.bids = newFakeBidRepo(env.tasks)
	env.fees = NewFeeService(&fakeFeeRepo{})
	env.svc = NewTaskService(env.tasks, env.bids, env.categories, env.users, env.fees, env.notifier)

	ctx := context.Background()
	customer := &models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleCustomer}
	require.NoError(t, env.users.Create(ctx, customer))
	tasker := &models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleTasker}
	require.NoError(t, env.users.Create(ctx, tasker))
	admin := &models.User{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(t, env.users.Create(ctx, admin))

	category := &models.Category{Name: "Cleaning"}
	require.NoError(t, env.categories.Store(ctx, category))

	env.customer = authz.Actor{ID: customer.ID, Role: models.RoleCustomer, Name: customer.Name, Email: customer.Email}
	env.tasker = authz.Actor{ID: tasker.ID, Role: models.RoleTasker, Name: tasker.Name, Email: tasker.Email}
	env.admin = authz.Actor{ID: admin.ID, Role: models.RoleAdmin, Name: admin.Name, Email: admin.Email}
	env.categoryID = category.ID
	return env
}

func (env *taskEnv) createTask(t *testing.T, budget float64) *models.Task {
	t.Helper()
	task, err := env.svc.Create(context.Background(), env.customer, CreateTaskInput{
		Title:      "Clean the garage",
		CategoryID: env.categoryID,
		Budget:     budget,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTaskSnapshotsFees(t *testing.T) {
	env := newTaskEnv(t)

	task := env.createTask(t, 1000)

	assert.Equal(t, models.StatusOpen, task.Status)
	assert.Nil(t, task.AssignedTo)
	assert.Equal(t, 50.0, task.Fees.PlatformFee)
	assert.Equal(t, 150.0, task.Fees.CommissionAmount)
	assert.Equal(t, 2.0, task.Fees.TrustAndSupportFee)
	assert.Equal(t, 850.0, task.Fees.FinalTaskerPayout)
	assert.Equal(t, 1052.0, task.Fees.TotalAmountPaidByCustomer)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, env.customer, CreateTaskInput{Title: " ", CategoryID: env.categoryID, Budget: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = env.svc.Create(ctx, env.customer, CreateTaskInput{Title: "x", CategoryID: env.categoryID, Budget: 0})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = env.svc.Create(ctx, env.customer, CreateTaskInput{Title: "x", CategoryID: primitive.NewObjectID(), Budget: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = env.svc.Create(ctx, env.tasker, CreateTaskInput{Title: "x", CategoryID: env.categoryID, Budget: 100})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestCreateTaskValidatesSubcategoryRelation(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	sub := &models.Category{Name: "Windows", ParentID: &env.categoryID}
	require.NoError(t, env.categories.Store(ctx, sub))
	other := &models.Category{Name: "Moving"}
	require.NoError(t, env.categories.Store(ctx, other))

	_, err := env.svc.Create(ctx, env.customer, CreateTaskInput{
		Title: "x", CategoryID: env.categoryID, SubcategoryID: &sub.ID, Budget: 100,
	})
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, env.customer, CreateTaskInput{
		Title: "x", CategoryID: other.ID, SubcategoryID: &sub.ID, Budget: 100,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateTaskBudgetUsesLivePolicy(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.fees.UpdatePolicy(ctx, env.admin.ID, 10, 20, 5)
	require.NoError(t, err)

	newBudget := 500.0
	updated, err := env.svc.Update(ctx, env.customer, task.ID, UpdateTaskInput{Budget: &newBudget})
	require.NoError(t, err)

	assert.Equal(t, 50.0, updated.Fees.PlatformFee)
	assert.Equal(t, 100.0, updated.Fees.CommissionAmount)
	assert.Equal(t, 5.0, updated.Fees.TrustAndSupportFee)
	assert.Equal(t, 400.0, updated.Fees.FinalTaskerPayout)
	assert.Equal(t, 555.0, updated.Fees.TotalAmountPaidByCustomer)
}

func TestUpdateTaskOnlyWhileOpen(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)

	title := "new title"
	_, err = env.svc.Update(ctx, env.customer, task.ID, UpdateTaskInput{Title: &title})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	err = env.svc.Delete(ctx, env.customer, task.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestUpdateTaskForbiddenForStrangers(t *testing.T) {
	env := newTaskEnv(t)
	task := env.createTask(t, 1000)

	title := "hijacked"
	_, err := env.svc.Update(context.Background(), env.tasker, task.ID, UpdateTaskInput{Title: &title})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestAssignTask(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	assigned, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, env.tasker.ID, *assigned.AssignedTo)

	notes := env.notifier.byType(models.NotifyTaskAssigned)
	require.Len(t, notes, 1)
	assert.Equal(t, env.tasker.ID, notes[0].RecipientID)

	_, err = env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAssignTaskRejectsNonTasker(t *testing.T) {
	env := newTaskEnv(t)
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(context.Background(), env.customer, task.ID, env.customer.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCompletionFlow(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)

	started, err := env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	requested, err := env.svc.RequestCompletion(ctx, env.tasker, task.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompletionRequested, requested.Status)
	assert.Equal(t, "done", requested.CompletionNote)
	require.NotNil(t, requested.CompletionRequestedBy)
	assert.Equal(t, env.tasker.ID, *requested.CompletionRequestedBy)

	completed, err := env.svc.ConfirmCompletion(ctx, env.customer, task.ID, "great work")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "great work", completed.CustomerFeedback)

	tasker, err := env.users.GetByID(ctx, env.tasker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tasker.CompletedTasks)

	assert.Len(t, env.notifier.byType(models.NotifyTaskStarted), 1)
	assert.Len(t, env.notifier.byType(models.NotifyCompletionRequested), 1)
	assert.Len(t, env.notifier.byType(models.NotifyTaskCompleted), 1)
}

func TestRejectCompletionClearsRequestFields(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)
	_, err = env.svc.RequestCompletion(ctx, env.tasker, task.ID, "done")
	require.NoError(t, err)

	rejected, err := env.svc.RejectCompletion(ctx, env.customer, task.ID, "incomplete")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, rejected.Status)
	assert.Nil(t, rejected.CompletionRequestedAt)
	assert.Nil(t, rejected.CompletionRequestedBy)
	assert.Empty(t, rejected.CompletionNote)

	notes := env.notifier.byType(models.NotifyCompletionRejected)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "incomplete")
}

func TestConfirmCompletionRequiresRequest(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)

	_, err = env.svc.ConfirmCompletion(ctx, env.customer, task.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestRequestCompletionIsAssigneeOnly(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)

	_, err = env.svc.RequestCompletion(ctx, env.customer, task.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// not even admins can request completion on someone else's behalf
	_, err = env.svc.RequestCompletion(ctx, env.admin, task.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestCancelNotAllowedOnceCompleted(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)
	_, err = env.svc.RequestCompletion(ctx, env.tasker, task.ID, "")
	require.NoError(t, err)
	_, err = env.svc.ConfirmCompletion(ctx, env.customer, task.ID, "")
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, env.customer, task.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAssignedToMatchesStatus(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	fetch := func() *models.Task {
		got, err := env.svc.GetByID(ctx, task.ID)
		require.NoError(t, err)
		return got
	}
	assert.Nil(t, fetch().AssignedTo)

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetch().AssignedTo)

	_, err = env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetch().AssignedTo)

	_, err = env.svc.RequestCompletion(ctx, env.tasker, task.ID, "")
	require.NoError(t, err)
	assert.NotNil(t, fetch().AssignedTo)

	_, err = env.svc.ConfirmCompletion(ctx, env.customer, task.ID, "")
	require.NoError(t, err)
	got := fetch()
	assert.NotNil(t, got.AssignedTo)
	assert.NotNil(t, got.CompletedAt)

	other := env.createTask(t, 800)
	_, err = env.svc.Assign(ctx, env.customer, other.ID, env.tasker.ID)
	require.NoError(t, err)
	cancelled, err := env.svc.Cancel(ctx, env.customer, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AssignedTo)
}

func TestCancelClearsAssignment(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	task := env.createTask(t, 1000)

	bid := &models.Bid{TaskID: task.ID, TaskerID: env.tasker.ID, Amount: 400, Status: models.BidPending}
	require.NoError(t, env.bids.Store(ctx, bid))

	_, err := env.svc.Assign(ctx, env.customer, task.ID, env.tasker.ID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, env.tasker, task.ID)
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(ctx, env.customer, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AssignedTo)

	stored, err := env.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)

	synced, err := env.bids.FindByID(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BidCancelled, synced.Status)

	notes := env.notifier.byType(models.NotifyTaskCancelled)
	require.Len(t, notes, 1)
	assert.Equal(t, env.tasker.ID, notes[0].RecipientID)
}
