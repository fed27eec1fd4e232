package mongo

import (
	"context"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const favoriteCollectionName = "favorites"

// mongoFavoriteRepository implements repository.FavoriteRepository
type mongoFavoriteRepository struct {
	collection *mongo.Collection
}

// NewMongoFavoriteRepository creates a new Favorite repository backed by MongoDB.
func NewMongoFavoriteRepository(db *mongo.Database) repository.FavoriteRepository {
	return &mongoFavoriteRepository{
		collection: db.Collection(favoriteCollectionName),
	}
}

// Add upserts the (athlete, coach) favorite pair, so adding twice is a no-op.
func (r *mongoFavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	filter := bson.M{"athleteId": favorite.AthleteID, "coachId": favorite.CoachID}
	update := bson.M{"$setOnInsert": bson.M{
		"athleteId": favorite.AthleteID,
		"coachId":   favorite.CoachID,
		"createdAt": time.Now().UTC(),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Remove deletes the favorite pair if present.
func (r *mongoFavoriteRepository) Remove(ctx context.Context, athleteID, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"athleteId": athleteID, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByAthlete retrieves an athlete's favorite coaches, newest first.
func (r *mongoFavoriteRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Favorite, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"athleteId": athleteID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var favorites []domain.Favorite
	if err = cursor.All(ctx, &favorites); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return favorites, nil
}

// EnsureFavoriteIndexes creates necessary indexes for the favorites collection.
func EnsureFavoriteIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "coachId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
