package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus type for the booking lifecycle
type BookingStatus string

const (
	BookingConfirmed           BookingStatus = "CONFIRMED"
	BookingCancelled           BookingStatus = "CANCELLED"
	BookingFinished            BookingStatus = "FINISHED"
	BookingRescheduleRequest   BookingStatus = "RESCHEDULE_REQUEST"
	BookingRescheduledAccepted BookingStatus = "RESCHEDULED_ACCEPTED"
	BookingRescheduledCanceled BookingStatus = "RESCHEDULED_CANCELED"
)

// ActiveBookingStatuses are the statuses under which a booking still occupies
// its time slot. The double-booking unique index is scoped to exactly these.
var ActiveBookingStatuses = []BookingStatus{
	BookingConfirmed,
	BookingRescheduleRequest,
	BookingRescheduledAccepted,
}

// IsActive reports whether the booking still occupies its slot.
func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveBookingStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// CanBeFinished reports whether a coach may mark the booking finished.
func (s BookingStatus) CanBeFinished() bool {
	return s == BookingConfirmed || s == BookingRescheduledAccepted
}

// CanBeRescheduled reports whether a reschedule may be requested against the
// booking. RESCHEDULE_REQUEST itself is excluded: a proposal is responded to,
// never re-proposed.
func (s BookingStatus) CanBeRescheduled() bool {
	return s == BookingConfirmed || s == BookingRescheduledAccepted
}

// Booking links one athlete, one coach and one time slot occurrence on a
// specific calendar date. Bookings are append-mostly: rescheduling creates a
// new row linked via RescheduleFromID rather than mutating this one, and no
// booking is ever physically deleted.
type Booking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID  primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	CoachID    primitive.ObjectID `bson:"coachId" json:"coachId"`
	TimeSlotID primitive.ObjectID `bson:"timeSlotId" json:"timeSlotId"`

	// BookingDate combines the slot's time-of-day with the requested calendar
	// date. BookingDay is the same value at day granularity ("2006-01-02"),
	// stored separately so the partial unique index can key on it.
	BookingDate time.Time `bson:"bookingDate" json:"bookingDate"`
	BookingDay  string    `bson:"bookingDay" json:"-"`

	Status BookingStatus `bson:"status" json:"status"`

	// Set on reschedule proposals: the booking this proposal would replace,
	// and which side of it asked for the change.
	RescheduleFromID *primitive.ObjectID `bson:"rescheduleFromId,omitempty" json:"rescheduleFromId,omitempty"`
	RequestedBy      Role                `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`

	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BookingDayFormat is the layout of Booking.BookingDay.
const BookingDayFormat = "2006-01-02"
