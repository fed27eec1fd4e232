package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotStatus type for the time slot on/off switch
type SlotStatus string

const (
	SlotActive   SlotStatus = "ACTIVE"
	SlotInactive SlotStatus = "INACTIVE"
)

// Default bookable unit length inside an availability window.
const DefaultSlotInterval = 60 * time.Minute

// CoachAvailability represents one coach's working window on one calendar
// date. At most one availability exists per (coach, date) pair; submitting a
// day's hours again replaces the window and regenerates its child slots.
type CoachAvailability struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	SlotDate  time.Time          `bson:"slotDate" json:"slotDate"` // normalized to midnight UTC
	StartTime time.Time          `bson:"startTime" json:"startTime"`
	EndTime   time.Time          `bson:"endTime" json:"endTime"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TimeSlot is one bookable unit-duration interval inside an availability
// window. IsBooked is a cache flag: it must be true exactly while some active
// booking references the slot.
type TimeSlot struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AvailabilityID primitive.ObjectID `bson:"availabilityId" json:"availabilityId"`
	CoachID        primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for ownership checks
	StartTime      time.Time          `bson:"startTime" json:"startTime"`
	EndTime        time.Time          `bson:"endTime" json:"endTime"`
	Status         SlotStatus         `bson:"status" json:"status"`
	IsBooked       bool               `bson:"isBooked" json:"isBooked"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Overlaps reports whether [start, end) overlaps the slot's own half-open
// interval. Touching boundaries do not overlap.
func (s *TimeSlot) Overlaps(start, end time.Time) bool {
	return start.Before(s.EndTime) && end.After(s.StartTime)
}

// DayOf normalizes a timestamp to midnight UTC of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay compares two timestamps at calendar-day granularity (UTC).
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// AtTimeOfDay combines the calendar day of date with the time-of-day of t.
func AtTimeOfDay(date, t time.Time) time.Time {
	day := DayOf(date)
	tu := t.UTC()
	return day.Add(time.Duration(tu.Hour())*time.Hour +
		time.Duration(tu.Minute())*time.Minute +
		time.Duration(tu.Second())*time.Second)
}
