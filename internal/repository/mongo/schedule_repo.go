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

const (
	availabilityCollectionName = "coach_availabilities"
	timeSlotCollectionName     = "time_slots"
)

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	availabilities *mongo.Collection
	slots          *mongo.Collection
}

// NewMongoScheduleRepository creates a new Schedule repository backed by MongoDB.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		availabilities: db.Collection(availabilityCollectionName),
		slots:          db.Collection(timeSlotCollectionName),
	}
}

// UpsertAvailability creates or replaces the availability window for the
// (coach, date) pair and returns the stored document.
func (r *mongoScheduleRepository) UpsertAvailability(ctx context.Context, availability *domain.CoachAvailability) (*domain.CoachAvailability, error) {
	if availability.CoachID == primitive.NilObjectID {
		return nil, errors.New("availability requires coachId")
	}

	now := time.Now().UTC()
	day := domain.DayOf(availability.SlotDate)

	filter := bson.M{"coachId": availability.CoachID, "slotDate": day}
	update := bson.M{
		"$set": bson.M{
			"startTime": availability.StartTime,
			"endTime":   availability.EndTime,
			"active":    availability.Active,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"coachId":   availability.CoachID,
			"slotDate":  day,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored domain.CoachAvailability
	err := r.availabilities.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &stored, nil
}

// GetAvailabilityByID retrieves an availability window by its ID.
func (r *mongoScheduleRepository) GetAvailabilityByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachAvailability, error) {
	var availability domain.CoachAvailability
	err := r.availabilities.FindOne(ctx, bson.M{"_id": id}).Decode(&availability)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &availability, nil
}

// GetAvailabilityByCoachAndDate retrieves the single availability window for
// one coach on one calendar date.
func (r *mongoScheduleRepository) GetAvailabilityByCoachAndDate(ctx context.Context, coachID primitive.ObjectID, date time.Time) (*domain.CoachAvailability, error) {
	var availability domain.CoachAvailability
	filter := bson.M{"coachId": coachID, "slotDate": domain.DayOf(date)}
	err := r.availabilities.FindOne(ctx, filter).Decode(&availability)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &availability, nil
}

// InsertSlots bulk-inserts freshly generated slots and returns them with IDs set.
func (r *mongoScheduleRepository) InsertSlots(ctx context.Context, slots []domain.TimeSlot) ([]domain.TimeSlot, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(slots))
	for i := range slots {
		slots[i].ID = primitive.NewObjectID()
		slots[i].CreatedAt = now
		slots[i].UpdatedAt = now
		docs[i] = slots[i]
	}

	_, err := r.slots.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// InsertSlot inserts one slot added via the single-slot path.
func (r *mongoScheduleRepository) InsertSlot(ctx context.Context, slot *domain.TimeSlot) (primitive.ObjectID, error) {
	if slot.AvailabilityID == primitive.NilObjectID || slot.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("slot requires availabilityId and coachId")
	}

	slot.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	result, err := r.slots.InsertOne(ctx, slot)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted slot ID")
	}
	return insertedID, nil
}

// DeleteSlotsByAvailability removes every slot under an availability window.
// Callers must have verified none of them is booked.
func (r *mongoScheduleRepository) DeleteSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) error {
	_, err := r.slots.DeleteMany(ctx, bson.M{"availabilityId": availabilityID})
	return err
}

// GetSlotsByAvailability lists the slots of one availability window ordered by start time.
func (r *mongoScheduleRepository) GetSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) ([]domain.TimeSlot, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	cursor, err := r.slots.Find(ctx, bson.M{"availabilityId": availabilityID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []domain.TimeSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// GetSlotByID retrieves a slot by its ID.
func (r *mongoScheduleRepository) GetSlotByID(ctx context.Context, id primitive.ObjectID) (*domain.TimeSlot, error) {
	var slot domain.TimeSlot
	err := r.slots.FindOne(ctx, bson.M{"_id": id}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// SetSlotBooked flips the isBooked cache flag.
func (r *mongoScheduleRepository) SetSlotBooked(ctx context.Context, slotID primitive.ObjectID, booked bool) error {
	return r.updateSlot(ctx, slotID, bson.M{"isBooked": booked})
}

// SetSlotStatus flips the slot between ACTIVE and INACTIVE.
func (r *mongoScheduleRepository) SetSlotStatus(ctx context.Context, slotID primitive.ObjectID, status domain.SlotStatus) error {
	return r.updateSlot(ctx, slotID, bson.M{"status": status})
}

func (r *mongoScheduleRepository) updateSlot(ctx context.Context, slotID primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.slots.UpdateOne(ctx, bson.M{"_id": slotID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduleIndexes creates necessary indexes for the availability and
// slot collections. The unique (coachId, slotDate) index enforces the
// one-window-per-day invariant.
func EnsureScheduleIndexes(ctx context.Context, availabilities, slots *mongo.Collection) {
	availabilityIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "slotDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = availabilities.Indexes().CreateMany(ctx, availabilityIndexes)

	slotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "availabilityId", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = slots.Indexes().CreateMany(ctx, slotIndexes)
}
