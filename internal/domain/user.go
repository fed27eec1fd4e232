package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// User represents a user in the system (Athlete, Coach or Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific bookable profile ---
	// Only populated for users with RoleCoach.
	Coach *CoachProfile `bson:"coach,omitempty" json:"coach,omitempty"`
}

// CoachProfile holds the bookable profile of a coach.
type CoachProfile struct {
	Specialty    string  `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Location     string  `bson:"location,omitempty" json:"location,omitempty"`
	PricePerHour float64 `bson:"pricePerHour,omitempty" json:"pricePerHour,omitempty"`
	Bio          string  `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoKey     string  `bson:"photoKey,omitempty" json:"-"` // S3 object key, resolved to a URL on read
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

// Actor is the verified identity performing an operation, as supplied by the
// auth layer. Booking operations dispatch on it instead of re-checking raw
// role strings in every function.
type Actor struct {
	ID   primitive.ObjectID
	Role Role
}

// IsPartyTo reports whether the actor is the athlete or the coach on the
// given booking. Admins are deliberately not a party to any booking.
func (a Actor) IsPartyTo(b *Booking) bool {
	switch a.Role {
	case RoleAthlete:
		return b.AthleteID == a.ID
	case RoleCoach:
		return b.CoachID == a.ID
	default:
		return false
	}
}

// CounterpartyID returns the id of the other side of the booking.
func (a Actor) CounterpartyID(b *Booking) primitive.ObjectID {
	if a.Role == RoleCoach {
		return b.AthleteID
	}
	return b.CoachID
}
