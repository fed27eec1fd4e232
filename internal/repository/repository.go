package repository

import (
	"context"
	"time"

	"fieldhouse/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UnitOfWork runs a function inside one atomic transaction. Every multi-row
// mutation (booking insert/update plus its slot flip) goes through it so a
// failure after partial writes rolls back entirely. The ctx passed to fn
// carries the transaction and must be handed to every repository call inside.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CoachFilter narrows coach discovery queries. Zero values mean "no filter".
type CoachFilter struct {
	Specialty string
	Location  string
	MaxPrice  float64
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateCoachProfile(ctx context.Context, coachID primitive.ObjectID, profile *domain.CoachProfile) error
	FindCoaches(ctx context.Context, filter CoachFilter) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// ScheduleRepository owns CoachAvailability and TimeSlot rows.
type ScheduleRepository interface {
	UpsertAvailability(ctx context.Context, availability *domain.CoachAvailability) (*domain.CoachAvailability, error)
	GetAvailabilityByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachAvailability, error)
	GetAvailabilityByCoachAndDate(ctx context.Context, coachID primitive.ObjectID, date time.Time) (*domain.CoachAvailability, error)

	InsertSlots(ctx context.Context, slots []domain.TimeSlot) ([]domain.TimeSlot, error)
	InsertSlot(ctx context.Context, slot *domain.TimeSlot) (primitive.ObjectID, error)
	DeleteSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) error
	GetSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) ([]domain.TimeSlot, error)
	GetSlotByID(ctx context.Context, id primitive.ObjectID) (*domain.TimeSlot, error)
	SetSlotBooked(ctx context.Context, slotID primitive.ObjectID, booked bool) error
	SetSlotStatus(ctx context.Context, slotID primitive.ObjectID, status domain.SlotStatus) error
}

// BookingRepository defines the interface for interacting with booking data.
// Create must surface unique-index violations as ErrDuplicate: the partial
// unique index on (timeSlotId, bookingDay) over active statuses is the real
// double-booking guard, not the service-level pre-check.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error)
	FindActiveBySlotAndDay(ctx context.Context, slotID primitive.ObjectID, day string) (*domain.Booking, error)
	FindPendingRescheduleFor(ctx context.Context, originalID primitive.ObjectID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.BookingStatus) error
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Booking, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Booking, error)
	CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error)
}

// ReviewRepository defines the interface for interacting with review data.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error)
	GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*domain.Review, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Review, error)
	AverageRatingForCoach(ctx context.Context, coachID primitive.ObjectID) (float64, error)
}

// FavoriteRepository defines the interface for athlete favorite coaches.
type FavoriteRepository interface {
	Add(ctx context.Context, favorite *domain.Favorite) error
	Remove(ctx context.Context, athleteID, coachID primitive.ObjectID) error
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Favorite, error)
}

// NotificationRepository defines the interface for the in-app notification store.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (primitive.ObjectID, error)
	ListByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, receiverID, notificationID primitive.ObjectID) error
}

// SubscriptionRepository defines the interface for coach subscription state.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, subscription *domain.Subscription) error
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) (*domain.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	CountByStatus(ctx context.Context, status domain.SubscriptionStatus) (int64, error)
}
