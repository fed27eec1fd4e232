package mongo

import (
	"context"
	"errors"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingCollectionName = "bookings"

// mongoBookingRepository implements repository.BookingRepository
type mongoBookingRepository struct {
	collection *mongo.Collection
}

// NewMongoBookingRepository creates a new Booking repository backed by MongoDB.
func NewMongoBookingRepository(db *mongo.Database) repository.BookingRepository {
	return &mongoBookingRepository{
		collection: db.Collection(bookingCollectionName),
	}
}

func activeStatusFilter() bson.M {
	statuses := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		statuses[i] = string(s)
	}
	return bson.M{"$in": statuses}
}

// Create inserts a new booking. A violation of the partial unique index on
// (timeSlotId, bookingDay) surfaces as repository.ErrDuplicate, which is how
// concurrent double-booking attempts lose the race.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *domain.Booking) (primitive.ObjectID, error) {
	if booking.AthleteID == primitive.NilObjectID ||
		booking.CoachID == primitive.NilObjectID ||
		booking.TimeSlotID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("booking requires athleteId, coachId and timeSlotId")
	}

	booking.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = domain.BookingConfirmed
	}
	if booking.BookingDay == "" {
		booking.BookingDay = booking.BookingDate.UTC().Format(domain.BookingDayFormat)
	}

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted booking ID")
	}
	return insertedID, nil
}

// GetByID retrieves a booking by its ID.
func (r *mongoBookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// FindActiveBySlotAndDay finds the booking (if any) that currently occupies
// the given slot on the given calendar day.
func (r *mongoBookingRepository) FindActiveBySlotAndDay(ctx context.Context, slotID primitive.ObjectID, day string) (*domain.Booking, error) {
	var booking domain.Booking
	filter := bson.M{
		"timeSlotId": slotID,
		"bookingDay": day,
		"status":     activeStatusFilter(),
	}
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// FindPendingRescheduleFor finds the outstanding reschedule proposal against
// the given original booking, if one exists.
func (r *mongoBookingRepository) FindPendingRescheduleFor(ctx context.Context, originalID primitive.ObjectID) (*domain.Booking, error) {
	var booking domain.Booking
	filter := bson.M{
		"rescheduleFromId": originalID,
		"status":           string(domain.BookingRescheduleRequest),
	}
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus moves a booking to a new lifecycle status. Transition
// validation belongs to the service; bookings are never deleted.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.BookingStatus) error {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByAthlete retrieves all bookings of an athlete, newest first.
func (r *mongoBookingRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Booking, error) {
	return r.list(ctx, bson.M{"athleteId": athleteID})
}

// ListByCoach retrieves all bookings of a coach, newest first.
func (r *mongoBookingRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Booking, error) {
	return r.list(ctx, bson.M{"coachId": coachID})
}

func (r *mongoBookingRepository) list(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "bookingDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []domain.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountByStatus counts bookings in one lifecycle status.
func (r *mongoBookingRepository) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": string(status)})
}

// EnsureBookingIndexes creates necessary indexes for the bookings collection.
// The partial unique index is the double-booking guard: among bookings in an
// active status, (timeSlotId, bookingDay) can occur at most once.
func EnsureBookingIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timeSlotId", Value: 1}, {Key: "bookingDay", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": activeStatusFilter()}),
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "bookingDate", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "bookingDate", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "rescheduleFromId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
