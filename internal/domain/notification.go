package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is one in-app message for a user. Delivery to external push
// channels is a separate collaborator; this record is the system of record.
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID primitive.ObjectID `bson:"receiverId" json:"receiverId"`
	SenderID   primitive.ObjectID `bson:"senderId,omitempty" json:"senderId,omitempty"`
	Title      string             `bson:"title" json:"title"`
	Body       string             `bson:"body" json:"body"`
	Read       bool               `bson:"read" json:"read"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
