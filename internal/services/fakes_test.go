package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/models"
)

// In-memory repository fakes. They mirror the storage semantics the services
// rely on, including the compare-and-set in AssignIfOpen.

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[primitive.ObjectID]*models.Task)}
}

func (r *fakeTaskRepo) Store(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, task := range r.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && task.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsUrgent != out[j].IsUrgent {
			return out[i].IsUrgent
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.UpdatedAt = time.Now()
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) AssignIfOpen(_ context.Context, id, taskerID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Status != models.StatusOpen {
		return false, nil
	}
	task.Status = models.StatusAssigned
	task.AssignedTo = &taskerID
	task.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTaskRepo) CountByStatus(_ context.Context) (map[models.TaskStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.TaskStatus]int64)
	for _, task := range r.tasks {
		counts[task.Status]++
	}
	return counts, nil
}

func (r *fakeTaskRepo) FeeTotals(_ context.Context, from, to time.Time) (*models.FeeTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := &models.FeeTotals{}
	for _, task := range r.tasks {
		if task.Status != models.StatusCompleted {
			continue
		}
		totals.Tasks++
		totals.Budget += task.Budget
		totals.PlatformFees += task.Fees.PlatformFee
		totals.Commissions += task.Fees.CommissionAmount
		totals.TrustFees += task.Fees.TrustAndSupportFee
		totals.TaskerPayouts += task.Fees.FinalTaskerPayout
		totals.CustomerTotals += task.Fees.TotalAmountPaidByCustomer
	}
	return totals, nil
}

type fakeBidRepo struct {
	mu    sync.Mutex
	bids  map[primitive.ObjectID]*models.Bid
	tasks *fakeTaskRepo
}

func newFakeBidRepo(tasks *fakeTaskRepo) *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[primitive.ObjectID]*models.Bid), tasks: tasks}
}

func (r *fakeBidRepo) Store(_ context.Context, bid *models.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bid.ID.IsZero() {
		bid.ID = primitive.NewObjectID()
	}
	copied := *bid
	r.bids[bid.ID] = &copied
	return nil
}

func (r *fakeBidRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid, ok := r.bids[id]
	if !ok {
		return nil, nil
	}
	copied := *bid
	return &copied, nil
}

func (r *fakeBidRepo) FindByTaskAndTasker(_ context.Context, taskID, taskerID primitive.ObjectID) (*models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bid := range r.bids {
		if bid.TaskID == taskID && bid.TaskerID == taskerID {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeBidRepo) ListByTask(_ context.Context, taskID primitive.ObjectID) ([]models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Bid
	for _, bid := range r.bids {
		if bid.TaskID == taskID {
			out = append(out, *bid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })
	return out, nil
}

func (r *fakeBidRepo) ListByTasker(_ context.Context, filter models.BidFilter) ([]models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Bid
	for _, bid := range r.bids {
		if bid.TaskerID != filter.TaskerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if bid.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.TaskStatus != nil {
			task, _ := r.tasks.FindByID(context.Background(), bid.TaskID)
			if task == nil {
				continue
			}
			match := task.Status == *filter.TaskStatus
			if filter.TaskStatusNegated {
				match = !match
			}
			if !match {
				continue
			}
		}
		out = append(out, *bid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeBidRepo) FindByTaskAndStatus(_ context.Context, taskID primitive.ObjectID, status models.BidStatus) ([]models.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Bid
	for _, bid := range r.bids {
		if bid.TaskID == taskID && bid.Status == status {
			out = append(out, *bid)
		}
	}
	return out, nil
}

func (r *fakeBidRepo) Update(_ context.Context, bid *models.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid.UpdatedAt = time.Now()
	copied := *bid
	r.bids[bid.ID] = &copied
	return nil
}

func (r *fakeBidRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bids, id)
	return nil
}

func (r *fakeBidRepo) RejectSiblings(_ context.Context, taskID, acceptedBidID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bid := range r.bids {
		if bid.TaskID != taskID || bid.ID == acceptedBidID {
			continue
		}
		if bid.Status == models.BidPending || bid.Status == models.BidInProgress {
			bid.Status = models.BidRejected
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role *models.Role, limit, offset int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if role != nil && user.Role != *role {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRatingStats(_ context.Context, taskerID primitive.ObjectID, average float64, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[taskerID]; ok {
		user.AverageRating = average
		user.TotalReviews = total
	}
	return nil
}

func (r *fakeUserRepo) IncCompletedTasks(_ context.Context, taskerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[taskerID]; ok {
		user.CompletedTasks++
	}
	return nil
}

func (r *fakeUserRepo) UpdateRefresh(_ context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.RefreshToken = &token
		user.RefreshExpiresAt = &expiresAt
	}
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(_ context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.RefreshToken != nil && *user.RefreshToken == token && token != "" {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetTelegramSettings(_ context.Context, id primitive.ObjectID) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user.TelegramChatID, user.AllowTelegram, nil
	}
	return 0, false, nil
}

func (r *fakeUserRepo) SetTelegramChat(_ context.Context, id primitive.ObjectID, chatID int64, allow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.TelegramChatID = chatID
		user.AllowTelegram = allow
	}
	return nil
}

func (r *fakeUserRepo) ClearTelegramChat(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.TelegramChatID = 0
		user.AllowTelegram = false
	}
	return nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[primitive.ObjectID]*models.Review)}
}

func (r *fakeReviewRepo) Store(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	copied := *review
	r.reviews[review.ID] = &copied
	return nil
}

func (r *fakeReviewRepo) FindByTaskAndReviewer(_ context.Context, taskID, reviewerID primitive.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.TaskID == taskID && review.ReviewerID == reviewerID {
			copied := *review
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) ListByTasker(_ context.Context, taskerID primitive.ObjectID) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Review
	for _, review := range r.reviews {
		if review.TaskerID == taskerID {
			out = append(out, *review)
		}
	}
	return out, nil
}

type fakeFeeRepo struct {
	mu      sync.Mutex
	history []models.FeeSettings
}

func (r *fakeFeeRepo) Store(_ context.Context, settings *models.FeeSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if settings.ID.IsZero() {
		settings.ID = primitive.NewObjectID()
	}
	settings.CreatedAt = time.Now()
	r.history = append(r.history, *settings)
	return nil
}

func (r *fakeFeeRepo) Latest(_ context.Context) (*models.FeeSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return nil, nil
	}
	latest := r.history[len(r.history)-1]
	return &latest, nil
}

func (r *fakeFeeRepo) History(_ context.Context, limit int) ([]models.FeeSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FeeSettings, len(r.history))
	copy(out, r.history)
	return out, nil
}

// recordingNotifier captures emissions so tests can assert on side effects.
type recordingNotifier struct {
	mu      sync.Mutex
	emitted []models.Notification
}

func (n *recordingNotifier) Emit(notification *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emitted = append(n.emitted, *notification)
}

func (n *recordingNotifier) ListForUser(context.Context, primitive.ObjectID, bool) ([]models.Notification, error) {
	return nil, nil
}

func (n *recordingNotifier) UnreadCount(context.Context, primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (n *recordingNotifier) MarkRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (n *recordingNotifier) MarkAllRead(context.Context, primitive.ObjectID) error {
	return nil
}

func (n *recordingNotifier) byType(t models.NotificationType) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, e := range n.emitted {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[primitive.ObjectID]*models.Category)}
}

func (r *fakeCategoryRepo) Store(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Category
	for _, category := range r.categories {
		out = append(out, *category)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.categories[id]
	return ok, nil
}

func (r *fakeCategoryRepo) IsChildOf(_ context.Context, childID, parentID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	child, ok := r.categories[childID]
	return ok && child.ParentID != nil && *child.ParentID == parentID, nil
}
