package service

import (
	"context"
	"errors"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrNotBookingParty         = errors.New("you are not a party to this booking")
	ErrSlotNotOwnedByCoach     = errors.New("time slot does not belong to the selected coach")
	ErrSlotInactive            = errors.New("this time slot is not active")
	ErrSlotAlreadyBooked       = errors.New("this time slot is already booked for the selected date")
	ErrBookingDateMismatch     = errors.New("booking date does not match the slot's availability date")
	ErrBookingDateInPast       = errors.New("booking date cannot be in the past")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrBookingAlreadyFinished  = errors.New("booking is already finished")
	ErrBookingNotOccurred      = errors.New("cannot finish a booking that has not occurred yet")
	ErrBookingNotFinishable    = errors.New("booking cannot be finished from its current state")
	ErrBookingNotCancellable   = errors.New("booking cannot be cancelled from its current state")
	ErrRescheduleNotAllowed    = errors.New("booking cannot be rescheduled from its current state")
	ErrReschedulePending       = errors.New("a reschedule request is already pending for this booking")
	ErrNotRescheduleRequest    = errors.New("booking is not a pending reschedule request")
	ErrRescheduleSelfRespond   = errors.New("the requesting party cannot respond to its own reschedule request")
)

// RescheduleDecision is the counter-party's answer to a reschedule proposal.
type RescheduleDecision string

const (
	RescheduleAccept RescheduleDecision = "accept"
	RescheduleReject RescheduleDecision = "reject"
)

// --- Service Interface ---
type BookingService interface {
	// Create books an active, unbooked slot for the athlete on the given
	// calendar date. The stored booking date combines that date with the
	// slot's time-of-day.
	Create(ctx context.Context, athleteID, coachID, slotID primitive.ObjectID, bookingDate time.Time, notes string) (*domain.Booking, error)

	// Cancel moves an active booking to CANCELLED and releases its slot. A
	// pending reschedule proposal against the booking is cancelled with it.
	Cancel(ctx context.Context, actor domain.Actor, bookingID primitive.ObjectID) (*domain.Booking, error)

	// Finish marks a past session as FINISHED. Coach-only.
	Finish(ctx context.Context, coachID, bookingID primitive.ObjectID) (*domain.Booking, error)

	// RequestReschedule creates a new RESCHEDULE_REQUEST booking linked to
	// the original, targeting a new slot/date. The original stays untouched
	// until the counter-party responds.
	RequestReschedule(ctx context.Context, actor domain.Actor, bookingID, newSlotID primitive.ObjectID, newDate time.Time, notes string) (*domain.Booking, error)

	// RespondToReschedule consumes a pending proposal. Accept cancels the
	// original and activates the proposal; reject cancels only the proposal.
	RespondToReschedule(ctx context.Context, actor domain.Actor, proposalID primitive.ObjectID, decision RescheduleDecision) (*domain.Booking, error)

	ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
}

// --- Service Implementation ---

// bookingService implements the BookingService interface. Every mutation of
// booking + slot state runs inside one UnitOfWork transaction; the partial
// unique index on (timeSlotId, bookingDay) backs the double-booking guard.
type bookingService struct {
	bookingRepo  repository.BookingRepository
	scheduleRepo repository.ScheduleRepository
	uow          repository.UnitOfWork
	notifier     Notifier
	now          func() time.Time
}

// NewBookingService creates a new instance of bookingService.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	scheduleRepo repository.ScheduleRepository,
	uow repository.UnitOfWork,
	notifier Notifier,
) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		uow:          uow,
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) Create(ctx context.Context, athleteID, coachID, slotID primitive.ObjectID, bookingDate time.Time, notes string) (*domain.Booking, error) {
	if athleteID == primitive.NilObjectID || coachID == primitive.NilObjectID || slotID == primitive.NilObjectID {
		return nil, errors.New("athlete ID, coach ID, and slot ID are required")
	}
	if bookingDate.IsZero() {
		return nil, errors.New("booking date is required")
	}

	var booking *domain.Booking
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		slot, err := s.validateBookableSlot(ctx, coachID, slotID, bookingDate)
		if err != nil {
			return err
		}

		booking = &domain.Booking{
			AthleteID:   athleteID,
			CoachID:     coachID,
			TimeSlotID:  slot.ID,
			BookingDate: domain.AtTimeOfDay(bookingDate, slot.StartTime),
			Status:      domain.BookingConfirmed,
			Notes:       notes,
		}
		booking.BookingDay = booking.BookingDate.Format(domain.BookingDayFormat)

		bookingID, err := s.bookingRepo.Create(ctx, booking)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Lost the race against a concurrent creation.
				return ErrSlotAlreadyBooked
			}
			return err
		}
		booking.ID = bookingID

		return s.scheduleRepo.SetSlotBooked(ctx, slot.ID, true)
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.Notify(ctx, booking.CoachID, booking.AthleteID,
		"New booking", "An athlete booked a session with you on "+booking.BookingDay+".")
	return booking, nil
}

// validateBookableSlot checks every precondition for occupying a slot on a
// date: slot exists, belongs to the coach, is active, its availability date
// matches, the date is not in the past, and no active booking holds it.
func (s *bookingService) validateBookableSlot(ctx context.Context, coachID, slotID primitive.ObjectID, bookingDate time.Time) (*domain.TimeSlot, error) {
	slot, err := s.scheduleRepo.GetSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if slot.CoachID != coachID {
		return nil, ErrSlotNotOwnedByCoach
	}
	if slot.Status != domain.SlotActive {
		return nil, ErrSlotInactive
	}

	availability, err := s.scheduleRepo.GetAvailabilityByID(ctx, slot.AvailabilityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}
	if !domain.SameDay(availability.SlotDate, bookingDate) {
		return nil, ErrBookingDateMismatch
	}

	startAt := domain.AtTimeOfDay(bookingDate, slot.StartTime)
	if startAt.Before(s.now()) {
		return nil, ErrBookingDateInPast
	}

	day := domain.DayOf(bookingDate).Format(domain.BookingDayFormat)
	_, err = s.bookingRepo.FindActiveBySlotAndDay(ctx, slot.ID, day)
	if err == nil {
		return nil, ErrSlotAlreadyBooked
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if slot.IsBooked {
		return nil, ErrSlotAlreadyBooked
	}
	return slot, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor domain.Actor, bookingID primitive.ObjectID) (*domain.Booking, error) {
	if bookingID == primitive.NilObjectID {
		return nil, errors.New("booking ID is required")
	}

	var booking *domain.Booking
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.getPartyBooking(ctx, actor, bookingID)
		if err != nil {
			return err
		}

		switch booking.Status {
		case domain.BookingCancelled, domain.BookingRescheduledCanceled:
			return ErrBookingAlreadyCancelled
		case domain.BookingFinished:
			return ErrBookingAlreadyFinished
		}
		if !booking.Status.IsActive() {
			return ErrBookingNotCancellable
		}

		// A pending proposal against this booking falls with it.
		proposal, err := s.bookingRepo.FindPendingRescheduleFor(ctx, booking.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if proposal != nil {
			if err := s.closeBooking(ctx, proposal, domain.BookingRescheduledCanceled); err != nil {
				return err
			}
		}

		if err := s.closeBooking(ctx, booking, domain.BookingCancelled); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.Notify(ctx, actor.CounterpartyID(booking), actor.ID,
		"Booking cancelled", "Your session on "+booking.BookingDay+" was cancelled.")
	return booking, nil
}

// closeBooking moves a booking into a closed status and releases its slot.
func (s *bookingService) closeBooking(ctx context.Context, booking *domain.Booking, status domain.BookingStatus) error {
	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, status); err != nil {
		return err
	}
	booking.Status = status
	return s.scheduleRepo.SetSlotBooked(ctx, booking.TimeSlotID, false)
}

func (s *bookingService) Finish(ctx context.Context, coachID, bookingID primitive.ObjectID) (*domain.Booking, error) {
	if coachID == primitive.NilObjectID || bookingID == primitive.NilObjectID {
		return nil, errors.New("coach ID and booking ID are required")
	}

	var booking *domain.Booking
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.CoachID != coachID {
			return ErrNotBookingParty
		}

		switch booking.Status {
		case domain.BookingFinished:
			return ErrBookingAlreadyFinished
		case domain.BookingCancelled, domain.BookingRescheduledCanceled:
			return ErrBookingAlreadyCancelled
		}
		if !booking.Status.CanBeFinished() {
			return ErrBookingNotFinishable
		}
		if booking.BookingDate.After(s.now()) {
			return ErrBookingNotOccurred
		}

		if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, domain.BookingFinished); err != nil {
			return err
		}
		booking.Status = domain.BookingFinished
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.Notify(ctx, booking.AthleteID, booking.CoachID,
		"Session finished", "Your coach marked the session on "+booking.BookingDay+" as finished.")
	return booking, nil
}

func (s *bookingService) RequestReschedule(ctx context.Context, actor domain.Actor, bookingID, newSlotID primitive.ObjectID, newDate time.Time, notes string) (*domain.Booking, error) {
	if bookingID == primitive.NilObjectID || newSlotID == primitive.NilObjectID {
		return nil, errors.New("booking ID and new slot ID are required")
	}
	if newDate.IsZero() {
		return nil, errors.New("new booking date is required")
	}

	var proposal *domain.Booking
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.getPartyBooking(ctx, actor, bookingID)
		if err != nil {
			return err
		}
		if !original.Status.CanBeRescheduled() {
			return ErrRescheduleNotAllowed
		}

		// One outstanding request at a time.
		_, err = s.bookingRepo.FindPendingRescheduleFor(ctx, original.ID)
		if err == nil {
			return ErrReschedulePending
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		slot, err := s.validateBookableSlot(ctx, original.CoachID, newSlotID, newDate)
		if err != nil {
			return err
		}

		originalID := original.ID
		proposal = &domain.Booking{
			AthleteID:        original.AthleteID,
			CoachID:          original.CoachID,
			TimeSlotID:       slot.ID,
			BookingDate:      domain.AtTimeOfDay(newDate, slot.StartTime),
			Status:           domain.BookingRescheduleRequest,
			RescheduleFromID: &originalID,
			RequestedBy:      actor.Role,
			Notes:            notes,
		}
		proposal.BookingDay = proposal.BookingDate.Format(domain.BookingDayFormat)

		proposalID, err := s.bookingRepo.Create(ctx, proposal)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSlotAlreadyBooked
			}
			return err
		}
		proposal.ID = proposalID

		return s.scheduleRepo.SetSlotBooked(ctx, slot.ID, true)
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.Notify(ctx, actor.CounterpartyID(proposal), actor.ID,
		"Reschedule requested", "A reschedule to "+proposal.BookingDay+" was proposed for your session.")
	return proposal, nil
}

func (s *bookingService) RespondToReschedule(ctx context.Context, actor domain.Actor, proposalID primitive.ObjectID, decision RescheduleDecision) (*domain.Booking, error) {
	if proposalID == primitive.NilObjectID {
		return nil, errors.New("reschedule booking ID is required")
	}
	if decision != RescheduleAccept && decision != RescheduleReject {
		return nil, errors.New("decision must be accept or reject")
	}

	var proposal *domain.Booking
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		proposal, err = s.getPartyBooking(ctx, actor, proposalID)
		if err != nil {
			return err
		}
		if proposal.Status != domain.BookingRescheduleRequest || proposal.RescheduleFromID == nil {
			return ErrNotRescheduleRequest
		}
		if actor.Role == proposal.RequestedBy {
			return ErrRescheduleSelfRespond
		}

		if decision == RescheduleReject {
			// The proposal dies; the original booking stays live untouched.
			return s.closeBooking(ctx, proposal, domain.BookingRescheduledCanceled)
		}

		original, err := s.bookingRepo.GetByID(ctx, *proposal.RescheduleFromID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if err := s.bookingRepo.UpdateStatus(ctx, proposal.ID, domain.BookingRescheduledAccepted); err != nil {
			return err
		}
		proposal.Status = domain.BookingRescheduledAccepted
		return s.closeBooking(ctx, original, domain.BookingCancelled)
	})
	if err != nil {
		return nil, err
	}

	title := "Reschedule accepted"
	body := "Your reschedule to " + proposal.BookingDay + " was accepted."
	if decision == RescheduleReject {
		title = "Reschedule rejected"
		body = "Your reschedule to " + proposal.BookingDay + " was rejected."
	}
	go s.notifier.Notify(ctx, actor.CounterpartyID(proposal), actor.ID, title, body)
	return proposal, nil
}

// ListForActor returns the bookings the actor is a party to.
func (s *bookingService) ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	if actor.Role == domain.RoleCoach {
		return s.bookingRepo.ListByCoach(ctx, actor.ID)
	}
	return s.bookingRepo.ListByAthlete(ctx, actor.ID)
}

// getPartyBooking loads a booking and verifies the actor is a party to it.
func (s *bookingService) getPartyBooking(ctx context.Context, actor domain.Actor, bookingID primitive.ObjectID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !actor.IsPartyTo(booking) {
		return nil, ErrNotBookingParty
	}
	return booking, nil
}
