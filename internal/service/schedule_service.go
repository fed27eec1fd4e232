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
	ErrInvalidWindow          = errors.New("availability end time must be after start time")
	ErrWindowHasBookedSlots   = errors.New("cannot regenerate slots: the window contains booked slots")
	ErrAvailabilityNotFound   = errors.New("no availability found for this coach and date")
	ErrSlotNotFound           = errors.New("time slot not found")
	ErrSlotOutsideWindow      = errors.New("slot must lie within the availability window")
	ErrSlotOverlap            = errors.New("slot overlaps an existing slot")
	ErrNotSlotOwner           = errors.New("time slot does not belong to this coach")
	ErrSlotBookedActive       = errors.New("cannot deactivate a booked slot")
)

// SlotConflict reports the first existing slot a candidate range collided with.
type SlotConflict struct {
	Conflicting *domain.TimeSlot
}

// GeneratedSchedule is the result of regenerating one day's slots.
type GeneratedSchedule struct {
	Availability *domain.CoachAvailability
	Slots        []domain.TimeSlot
}

// --- Service Interface ---
type ScheduleService interface {
	// GenerateSlots upserts the coach's availability window for the date and
	// regenerates its slots at the given interval (defaults to one hour).
	// Refuses when any existing slot in the window is booked.
	GenerateSlots(ctx context.Context, coachID primitive.ObjectID, date, windowStart, windowEnd time.Time, interval time.Duration) (*GeneratedSchedule, error)

	// AddSingleSlot inserts one slot into the coach's day, creating the
	// availability window when the day has none yet. On overlap it returns
	// ErrSlotOverlap along with the first conflicting slot.
	AddSingleSlot(ctx context.Context, coachID primitive.ObjectID, date, start, end time.Time) (*domain.TimeSlot, *SlotConflict, error)

	// ToggleSlot flips a slot between ACTIVE and INACTIVE. Only the owning
	// coach may toggle, and an active booked slot cannot be deactivated.
	ToggleSlot(ctx context.Context, coachID, slotID primitive.ObjectID) (*domain.TimeSlot, error)

	// GetSchedule returns the coach's window and slots for one date.
	GetSchedule(ctx context.Context, coachID primitive.ObjectID, date time.Time) (*GeneratedSchedule, error)
}

// --- Service Implementation ---

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	uow          repository.UnitOfWork
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(scheduleRepo repository.ScheduleRepository, uow repository.UnitOfWork) ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		uow:          uow,
	}
}

// HasConflict reports whether [candidateStart, candidateEnd) overlaps any of
// the existing slots under half-open semantics: touching boundaries are not a
// conflict. Returns the first conflicting slot found.
func HasConflict(candidateStart, candidateEnd time.Time, existing []domain.TimeSlot) (bool, *domain.TimeSlot) {
	for i := range existing {
		if existing[i].Overlaps(candidateStart, candidateEnd) {
			return true, &existing[i]
		}
	}
	return false, nil
}

func (s *scheduleService) GenerateSlots(ctx context.Context, coachID primitive.ObjectID, date, windowStart, windowEnd time.Time, interval time.Duration) (*GeneratedSchedule, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	if interval <= 0 {
		interval = domain.DefaultSlotInterval
	}

	// Anchor the window times on the requested calendar day.
	start := domain.AtTimeOfDay(date, windowStart)
	end := domain.AtTimeOfDay(date, windowEnd)
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	var result GeneratedSchedule
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		// Refuse destructive regeneration while any slot in the window holds
		// a live booking.
		existing, err := s.scheduleRepo.GetAvailabilityByCoachAndDate(ctx, coachID, date)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			slots, err := s.scheduleRepo.GetSlotsByAvailability(ctx, existing.ID)
			if err != nil {
				return err
			}
			for i := range slots {
				if slots[i].IsBooked {
					return ErrWindowHasBookedSlots
				}
			}
			if err := s.scheduleRepo.DeleteSlotsByAvailability(ctx, existing.ID); err != nil {
				return err
			}
		}

		availability, err := s.scheduleRepo.UpsertAvailability(ctx, &domain.CoachAvailability{
			CoachID:   coachID,
			SlotDate:  domain.DayOf(date),
			StartTime: start,
			EndTime:   end,
			Active:    true,
		})
		if err != nil {
			return err
		}

		slots := tileWindow(availability, start, end, interval)
		inserted, err := s.scheduleRepo.InsertSlots(ctx, slots)
		if err != nil {
			return err
		}

		result.Availability = availability
		result.Slots = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// tileWindow partitions [start, end) into interval-sized slots. A trailing
// partial slot is dropped, not truncated.
func tileWindow(availability *domain.CoachAvailability, start, end time.Time, interval time.Duration) []domain.TimeSlot {
	var slots []domain.TimeSlot
	for cur := start; !cur.Add(interval).After(end); cur = cur.Add(interval) {
		slots = append(slots, domain.TimeSlot{
			AvailabilityID: availability.ID,
			CoachID:        availability.CoachID,
			StartTime:      cur,
			EndTime:        cur.Add(interval),
			Status:         domain.SlotActive,
		})
	}
	return slots
}

func (s *scheduleService) AddSingleSlot(ctx context.Context, coachID primitive.ObjectID, date, start, end time.Time) (*domain.TimeSlot, *SlotConflict, error) {
	if coachID == primitive.NilObjectID {
		return nil, nil, errors.New("coach ID is required")
	}

	slotStart := domain.AtTimeOfDay(date, start)
	slotEnd := domain.AtTimeOfDay(date, end)
	if !slotEnd.After(slotStart) {
		return nil, nil, ErrInvalidWindow
	}

	var created *domain.TimeSlot
	var conflict *SlotConflict
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		availability, err := s.scheduleRepo.GetAvailabilityByCoachAndDate(ctx, coachID, date)
		if errors.Is(err, repository.ErrNotFound) {
			// First slot of the day opens the window.
			availability, err = s.scheduleRepo.UpsertAvailability(ctx, &domain.CoachAvailability{
				CoachID:   coachID,
				SlotDate:  domain.DayOf(date),
				StartTime: slotStart,
				EndTime:   slotEnd,
				Active:    true,
			})
		}
		if err != nil {
			return err
		}

		if slotStart.Before(availability.StartTime) || slotEnd.After(availability.EndTime) {
			return ErrSlotOutsideWindow
		}

		siblings, err := s.scheduleRepo.GetSlotsByAvailability(ctx, availability.ID)
		if err != nil {
			return err
		}
		if conflicts, hit := HasConflict(slotStart, slotEnd, siblings); conflicts {
			conflict = &SlotConflict{Conflicting: hit}
			return ErrSlotOverlap
		}

		slot := &domain.TimeSlot{
			AvailabilityID: availability.ID,
			CoachID:        coachID,
			StartTime:      slotStart,
			EndTime:        slotEnd,
			Status:         domain.SlotActive,
		}
		slotID, err := s.scheduleRepo.InsertSlot(ctx, slot)
		if err != nil {
			return err
		}
		slot.ID = slotID
		created = slot
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotOverlap) {
			return nil, conflict, err
		}
		return nil, nil, err
	}
	return created, nil, nil
}

func (s *scheduleService) ToggleSlot(ctx context.Context, coachID, slotID primitive.ObjectID) (*domain.TimeSlot, error) {
	if coachID == primitive.NilObjectID || slotID == primitive.NilObjectID {
		return nil, errors.New("coach ID and slot ID are required")
	}

	var updated *domain.TimeSlot
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		slot, err := s.scheduleRepo.GetSlotByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		if slot.CoachID != coachID {
			return ErrNotSlotOwner
		}
		if slot.Status == domain.SlotActive && slot.IsBooked {
			return ErrSlotBookedActive
		}

		next := domain.SlotActive
		if slot.Status == domain.SlotActive {
			next = domain.SlotInactive
		}
		if err := s.scheduleRepo.SetSlotStatus(ctx, slot.ID, next); err != nil {
			return err
		}
		slot.Status = next
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, coachID primitive.ObjectID, date time.Time) (*GeneratedSchedule, error) {
	availability, err := s.scheduleRepo.GetAvailabilityByCoachAndDate(ctx, coachID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}
	slots, err := s.scheduleRepo.GetSlotsByAvailability(ctx, availability.ID)
	if err != nil {
		return nil, err
	}
	return &GeneratedSchedule{Availability: availability, Slots: slots}, nil
}
