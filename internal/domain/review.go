package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is an athlete's rating of a coach, written against one finished
// booking. At most one review per booking.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID primitive.ObjectID `bson:"bookingId" json:"bookingId"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for coach-page queries
	Rating    int                `bson:"rating" json:"rating"`   // 1..5
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Favorite marks a coach as saved by an athlete. Unique per (athlete, coach).
type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
