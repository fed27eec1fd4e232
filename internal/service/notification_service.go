package service

import (
	"context"
	"log"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never fail a booking transaction: callers invoke Notify after commit
// and ignore its error beyond logging.
type Notifier interface {
	Notify(ctx context.Context, receiverID, senderID primitive.ObjectID, title, body string)
}

// --- Service Interface ---
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

// --- Service Implementation ---

// notificationService stores in-app notifications; delivery to push channels
// is a separate collaborator outside this service.
type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

// Notify persists an in-app notification. Best-effort: errors are logged and
// swallowed so a failed notification never surfaces to the triggering flow.
func (s *notificationService) Notify(ctx context.Context, receiverID, senderID primitive.ObjectID, title, body string) {
	// Detach from the caller's (possibly already finished) request context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, err := s.notificationRepo.Create(ctx, &domain.Notification{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Title:      title,
		Body:       body,
	})
	if err != nil {
		log.Printf("WARN: failed to store notification for %s: %v", receiverID.Hex(), err)
	}
}

// List retrieves a user's notifications, newest first.
func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	return s.notificationRepo.ListByReceiver(ctx, userID)
}

// MarkRead flags one of the user's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}
