package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"fieldhouse/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testDate() time.Time {
	return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
}

func clock(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

func sortSlots(slots []domain.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
}

func TestGenerateSlotsTilesWindow(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	schedule, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(17, 0), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if got := len(schedule.Slots); got != 8 {
		t.Fatalf("expected 8 slots for a 9:00-17:00 window, got %d", got)
	}

	sortSlots(schedule.Slots)
	for i, slot := range schedule.Slots {
		wantStart := clock(9+i, 0)
		if !slot.StartTime.Equal(wantStart) {
			t.Errorf("slot %d: start = %v, want %v", i, slot.StartTime, wantStart)
		}
		if !slot.EndTime.Equal(wantStart.Add(time.Hour)) {
			t.Errorf("slot %d: end = %v, want %v", i, slot.EndTime, wantStart.Add(time.Hour))
		}
		if slot.Status != domain.SlotActive {
			t.Errorf("slot %d: status = %s, want ACTIVE", i, slot.Status)
		}
		if slot.IsBooked {
			t.Errorf("slot %d: fresh slot must not be booked", i)
		}
	}

	if !schedule.Availability.SlotDate.Equal(testDate()) {
		t.Errorf("availability date = %v, want %v", schedule.Availability.SlotDate, testDate())
	}
}

func TestGenerateSlotsDropsTrailingPartial(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})

	// 9:00-12:30 at one hour: the 12:00-13:00 slot does not fit.
	schedule, err := svc.GenerateSlots(context.Background(), primitive.NewObjectID(), testDate(), clock(9, 0), clock(12, 30), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if got := len(schedule.Slots); got != 3 {
		t.Fatalf("expected 3 slots, got %d", got)
	}
	sortSlots(schedule.Slots)
	last := schedule.Slots[len(schedule.Slots)-1]
	if !last.EndTime.Equal(clock(12, 0)) {
		t.Errorf("last slot ends at %v, want 12:00", last.EndTime)
	}
}

func TestGenerateSlotsDefaultsInterval(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})

	schedule, err := svc.GenerateSlots(context.Background(), primitive.NewObjectID(), testDate(), clock(10, 0), clock(12, 0), 0)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if got := len(schedule.Slots); got != 2 {
		t.Fatalf("expected 2 slots at the default interval, got %d", got)
	}
}

func TestGenerateSlotsRejectsInvalidWindow(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})

	_, err := svc.GenerateSlots(context.Background(), primitive.NewObjectID(), testDate(), clock(17, 0), clock(9, 0), time.Hour)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}

	_, err = svc.GenerateSlots(context.Background(), primitive.NewObjectID(), testDate(), clock(9, 0), clock(9, 0), time.Hour)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for an empty window, got %v", err)
	}
}

func TestGenerateSlotsRefusesWhenBooked(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	first, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(12, 0), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if err := repo.SetSlotBooked(context.Background(), first.Slots[0].ID, true); err != nil {
		t.Fatalf("SetSlotBooked: %v", err)
	}

	_, err = svc.GenerateSlots(context.Background(), coachID, testDate(), clock(8, 0), clock(18, 0), time.Hour)
	if !errors.Is(err, ErrWindowHasBookedSlots) {
		t.Fatalf("expected ErrWindowHasBookedSlots, got %v", err)
	}

	// The original slots must survive the refused regeneration.
	slots, err := repo.GetSlotsByAvailability(context.Background(), first.Availability.ID)
	if err != nil {
		t.Fatalf("GetSlotsByAvailability: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected original 3 slots to remain, got %d", len(slots))
	}
}

func TestGenerateSlotsReplacesUnbookedDay(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	if _, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(12, 0), time.Hour); err != nil {
		t.Fatalf("first GenerateSlots: %v", err)
	}
	second, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(14, 0), clock(16, 0), time.Hour)
	if err != nil {
		t.Fatalf("second GenerateSlots: %v", err)
	}

	slots, err := repo.GetSlotsByAvailability(context.Background(), second.Availability.ID)
	if err != nil {
		t.Fatalf("GetSlotsByAvailability: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected the regenerated day to hold 2 slots only, got %d", len(slots))
	}
	sortSlots(slots)
	if !slots[0].StartTime.Equal(clock(14, 0)) {
		t.Errorf("regenerated day starts at %v, want 14:00", slots[0].StartTime)
	}
}

func TestHasConflictBoundaries(t *testing.T) {
	existing := []domain.TimeSlot{
		{StartTime: clock(11, 0), EndTime: clock(12, 0)},
	}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"touching before", clock(10, 0), clock(11, 0), false},
		{"touching after", clock(12, 0), clock(13, 0), false},
		{"overlapping front", clock(10, 30), clock(11, 30), true},
		{"overlapping back", clock(11, 30), clock(12, 30), true},
		{"contained", clock(11, 15), clock(11, 45), true},
		{"containing", clock(10, 0), clock(13, 0), true},
		{"identical", clock(11, 0), clock(12, 0), true},
		{"disjoint", clock(8, 0), clock(9, 0), false},
	}
	for _, tc := range cases {
		got, hit := HasConflict(tc.start, tc.end, existing)
		if got != tc.want {
			t.Errorf("%s: HasConflict = %v, want %v", tc.name, got, tc.want)
		}
		if got && hit == nil {
			t.Errorf("%s: conflict reported without the conflicting slot", tc.name)
		}
	}
}

func TestAddSingleSlotCreatesWindow(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	slot, conflict, err := svc.AddSingleSlot(context.Background(), coachID, testDate(), clock(10, 0), clock(11, 0))
	if err != nil {
		t.Fatalf("AddSingleSlot: %v", err)
	}
	if conflict != nil {
		t.Fatalf("unexpected conflict: %+v", conflict)
	}
	if slot.ID == primitive.NilObjectID {
		t.Fatal("inserted slot has no ID")
	}

	availability, err := repo.GetAvailabilityByCoachAndDate(context.Background(), coachID, testDate())
	if err != nil {
		t.Fatalf("window was not created: %v", err)
	}
	if !availability.StartTime.Equal(clock(10, 0)) || !availability.EndTime.Equal(clock(11, 0)) {
		t.Errorf("window = [%v, %v), want the slot's own bounds", availability.StartTime, availability.EndTime)
	}
}

func TestAddSingleSlotRejectsOverlap(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	if _, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(12, 0), time.Hour); err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	_, conflict, err := svc.AddSingleSlot(context.Background(), coachID, testDate(), clock(10, 30), clock(11, 30))
	if !errors.Is(err, ErrSlotOverlap) {
		t.Fatalf("expected ErrSlotOverlap, got %v", err)
	}
	if conflict == nil || conflict.Conflicting == nil {
		t.Fatal("overlap error must carry the conflicting slot")
	}
}

func TestAddSingleSlotOutsideWindow(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	if _, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(12, 0), time.Hour); err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	_, _, err := svc.AddSingleSlot(context.Background(), coachID, testDate(), clock(13, 0), clock(14, 0))
	if !errors.Is(err, ErrSlotOutsideWindow) {
		t.Fatalf("expected ErrSlotOutsideWindow, got %v", err)
	}
}

func TestToggleSlot(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	schedule, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(11, 0), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	slotID := schedule.Slots[0].ID

	slot, err := svc.ToggleSlot(context.Background(), coachID, slotID)
	if err != nil {
		t.Fatalf("ToggleSlot: %v", err)
	}
	if slot.Status != domain.SlotInactive {
		t.Fatalf("status after first toggle = %s, want INACTIVE", slot.Status)
	}

	slot, err = svc.ToggleSlot(context.Background(), coachID, slotID)
	if err != nil {
		t.Fatalf("ToggleSlot back: %v", err)
	}
	if slot.Status != domain.SlotActive {
		t.Fatalf("status after second toggle = %s, want ACTIVE", slot.Status)
	}
}

func TestToggleSlotForbiddenForOtherCoach(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	schedule, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(11, 0), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	_, err = svc.ToggleSlot(context.Background(), primitive.NewObjectID(), schedule.Slots[0].ID)
	if !errors.Is(err, ErrNotSlotOwner) {
		t.Fatalf("expected ErrNotSlotOwner, got %v", err)
	}
}

func TestToggleSlotRefusesBookedSlot(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewScheduleService(repo, fakeUnitOfWork{})
	coachID := primitive.NewObjectID()

	schedule, err := svc.GenerateSlots(context.Background(), coachID, testDate(), clock(9, 0), clock(11, 0), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	slotID := schedule.Slots[0].ID
	if err := repo.SetSlotBooked(context.Background(), slotID, true); err != nil {
		t.Fatalf("SetSlotBooked: %v", err)
	}

	_, err = svc.ToggleSlot(context.Background(), coachID, slotID)
	if !errors.Is(err, ErrSlotBookedActive) {
		t.Fatalf("expected ErrSlotBookedActive, got %v", err)
	}
}

func TestToggleSlotNotFound(t *testing.T) {
	svc := NewScheduleService(newFakeScheduleRepo(), fakeUnitOfWork{})

	_, err := svc.ToggleSlot(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestGetScheduleNoAvailability(t *testing.T) {
	svc := NewScheduleService(newFakeScheduleRepo(), fakeUnitOfWork{})

	_, err := svc.GetSchedule(context.Background(), primitive.NewObjectID(), testDate())
	if !errors.Is(err, ErrAvailabilityNotFound) {
		t.Fatalf("expected ErrAvailabilityNotFound, got %v", err)
	}
}
