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

const reviewCollectionName = "reviews"

// mongoReviewRepository implements repository.ReviewRepository
type mongoReviewRepository struct {
	collection *mongo.Collection
}

// NewMongoReviewRepository creates a new Review repository backed by MongoDB.
func NewMongoReviewRepository(db *mongo.Database) repository.ReviewRepository {
	return &mongoReviewRepository{
		collection: db.Collection(reviewCollectionName),
	}
}

// Create inserts a new review. The unique bookingId index enforces
// one-review-per-booking.
func (r *mongoReviewRepository) Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error) {
	if review.BookingID == primitive.NilObjectID || review.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("review requires bookingId and coachId")
	}

	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted review ID")
	}
	return insertedID, nil
}

// GetByBookingID retrieves the review written for one booking.
func (r *mongoReviewRepository) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*domain.Review, error) {
	var review domain.Review
	err := r.collection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// ListByCoach retrieves all reviews of a coach, newest first.
func (r *mongoReviewRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Review, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"coachId": coachID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []domain.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AverageRatingForCoach aggregates the mean rating across a coach's reviews.
// Returns 0 when the coach has no reviews yet.
func (r *mongoReviewRepository) AverageRatingForCoach(ctx context.Context, coachID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"coachId": coachID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"rating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Rating float64 `bson:"rating"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Rating, nil
}

// EnsureReviewIndexes creates necessary indexes for the reviews collection.
func EnsureReviewIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
