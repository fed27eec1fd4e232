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

const subscriptionCollectionName = "subscriptions"

// mongoSubscriptionRepository implements repository.SubscriptionRepository
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new Subscription repository backed by MongoDB.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

// Upsert writes the coach's subscription state keyed by coachId. Webhook
// deliveries can arrive out of order or repeated, so writes are idempotent.
func (r *mongoSubscriptionRepository) Upsert(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.CoachID == primitive.NilObjectID {
		return errors.New("subscription requires coachId")
	}

	now := time.Now().UTC()
	filter := bson.M{"coachId": subscription.CoachID}
	update := bson.M{
		"$set": bson.M{
			"stripeCustomerId":     subscription.StripeCustomerID,
			"stripeSubscriptionId": subscription.StripeSubscriptionID,
			"status":               subscription.Status,
			"currentPeriodEnd":     subscription.CurrentPeriodEnd,
			"updatedAt":            now,
		},
		"$setOnInsert": bson.M{
			"coachId":   subscription.CoachID,
			"createdAt": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetByCoachID retrieves a coach's subscription state.
func (r *mongoSubscriptionRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := r.collection.FindOne(ctx, bson.M{"coachId": coachID}).Decode(&subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

// GetByStripeSubscriptionID resolves a webhook event back to the local record.
func (r *mongoSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := r.collection.FindOne(ctx, bson.M{"stripeSubscriptionId": stripeSubscriptionID}).Decode(&subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

// CountByStatus counts subscriptions in one status.
func (r *mongoSubscriptionRepository) CountByStatus(ctx context.Context, status domain.SubscriptionStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": string(status)})
}

// EnsureSubscriptionIndexes creates necessary indexes for the subscriptions collection.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "stripeSubscriptionId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
