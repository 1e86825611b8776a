package services

import (
	"context"
	"encoding/json"
	"html"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/logging"
	"taskhive/internal/models"
	"taskhive/internal/realtime"
	"taskhive/internal/repositories"
)

// NotificationService is the single sink for lifecycle side effects: it
// persists the notification record and then tries realtime, push and email
// delivery. Every delivery path is best-effort; Emit never fails the
// triggering operation.
type NotificationService interface {
	Emit(notification *models.Notification)
	ListForUser(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) error
}

type notificationService struct {
	repo  repositories.NotificationRepository
	users repositories.UserRepository
	hub   *realtime.Hub
	email EmailService
	tg    *TelegramService

	pushBreaker *gobreaker.CircuitBreaker
}

func NewNotificationService(
	repo repositories.NotificationRepository,
	users repositories.UserRepository,
	hub *realtime.Hub,
	email EmailService,
	tg *TelegramService,
) NotificationService {
	pushBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "push-delivery-cb",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("[notify][cb] circuit breaker %q changed from %s to %s", name, from.String(), to.String())
		},
	})
	return &notificationService{
		repo:        repo,
		users:       users,
		hub:         hub,
		email:       email,
		tg:          tg,
		pushBreaker: pushBreaker,
	}
}

// Emit persists the notification and dispatches deliveries in the
// background. Failures are logged and swallowed.
func (s *notificationService) Emit(notification *models.Notification) {
	if notification == nil {
		return
	}
	ctx := context.Background()

	if err := s.repo.Store(ctx, notification); err != nil {
		logging.Logger.Errorf("[notify][store][err] type=%s recipient=%s: %v",
			notification.Type, notification.RecipientID.Hex(), err)
		return
	}

	n := *notification
	go s.deliver(n)
}

func (s *notificationService) deliver(n models.Notification) {
	s.deliverRealtime(n)
	s.deliverPush(n)
	s.deliverEmail(n)
}

func (s *notificationService) deliverRealtime(n models.Notification) {
	if s.hub == nil {
		return
	}
	recipient := n.RecipientID.Hex()
	if !s.hub.IsOnline(recipient) {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":        "notification",
		"notification": n,
	})
	if err != nil {
		logging.Logger.Warnf("[notify][realtime][err] marshal: %v", err)
		return
	}
	s.hub.Deliver(recipient, payload)
}

func (s *notificationService) deliverPush(n models.Notification) {
	if s.tg == nil || s.users == nil {
		return
	}
	ctx := context.Background()

	chatID, allow, err := s.users.GetTelegramSettings(ctx, n.RecipientID)
	if err != nil {
		logging.Logger.Warnf("[notify][push][err] get telegram settings recipient=%s: %v", n.RecipientID.Hex(), err)
		return
	}
	if !allow || chatID == 0 {
		return
	}

	text := "<b>" + html.EscapeString(n.Title) + "</b>\n" + html.EscapeString(n.Message)
	_, err = s.pushBreaker.Execute(func() (interface{}, error) {
		return nil, s.tg.SendMessage(chatID, text)
	})
	if err != nil {
		logging.Logger.Warnf("[notify][push][err] recipient=%s chatID=%d: %v", n.RecipientID.Hex(), chatID, err)
		if IsDeadChat(err) {
			if clearErr := s.users.ClearTelegramChat(ctx, n.RecipientID); clearErr != nil {
				logging.Logger.Warnf("[notify][push][err] prune dead chat recipient=%s: %v", n.RecipientID.Hex(), clearErr)
			} else {
				logging.Logger.Infof("[notify][push] pruned dead chat recipient=%s chatID=%d", n.RecipientID.Hex(), chatID)
			}
		}
	}
}

func (s *notificationService) deliverEmail(n models.Notification) {
	if s.email == nil || s.users == nil {
		return
	}
	ctx := context.Background()

	recipient, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil || recipient == nil || recipient.Email == "" {
		return
	}
	if err := s.email.SendNotificationEmail(recipient.Email, n.Title, n.Message); err != nil {
		logging.Logger.Warnf("[notify][email][err] recipient=%s: %v", recipient.Email, err)
	}
}

func (s *notificationService) ListForUser(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, unreadOnly)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}
