package mongo

import (
	"context"

	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoUnitOfWork implements repository.UnitOfWork over MongoDB sessions.
// Requires the server to run as a replica set (multi-document transactions).
type mongoUnitOfWork struct {
	client *mongo.Client
}

// NewMongoUnitOfWork creates a UnitOfWork backed by MongoDB transactions.
func NewMongoUnitOfWork(client *mongo.Client) repository.UnitOfWork {
	return &mongoUnitOfWork{client: client}
}

// WithinTransaction runs fn inside one MongoDB transaction. The session
// context it passes to fn must be used for every repository call in the
// transaction; the driver aborts the whole transaction when fn errors, so no
// partial booking/slot state is ever visible.
func (u *mongoUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := u.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
