package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus mirrors the payment provider's view of a coach's
// standing. The booking core only ever asks "is it active".
type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "PENDING"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Subscription is a coach's paid standing, kept in sync by the payment
// provider's webhook.
type Subscription struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID              primitive.ObjectID `bson:"coachId" json:"coachId"`
	StripeCustomerID     string             `bson:"stripeCustomerId,omitempty" json:"-"`
	StripeSubscriptionID string             `bson:"stripeSubscriptionId,omitempty" json:"-"`
	Status               SubscriptionStatus `bson:"status" json:"status"`
	CurrentPeriodEnd     time.Time          `bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
