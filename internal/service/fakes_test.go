package service

import (
	"context"
	"sync"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the behavior the mongo
// implementations promise, including the duplicate-key signal on inserting a
// second active booking for the same (slot, day) pair.

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Schedule ---

type fakeScheduleRepo struct {
	availabilities map[primitive.ObjectID]*domain.CoachAvailability
	slots          map[primitive.ObjectID]*domain.TimeSlot
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		availabilities: make(map[primitive.ObjectID]*domain.CoachAvailability),
		slots:          make(map[primitive.ObjectID]*domain.TimeSlot),
	}
}

func (r *fakeScheduleRepo) UpsertAvailability(ctx context.Context, availability *domain.CoachAvailability) (*domain.CoachAvailability, error) {
	for _, a := range r.availabilities {
		if a.CoachID == availability.CoachID && a.SlotDate.Equal(domain.DayOf(availability.SlotDate)) {
			a.StartTime = availability.StartTime
			a.EndTime = availability.EndTime
			a.Active = availability.Active
			cp := *a
			return &cp, nil
		}
	}
	stored := *availability
	stored.ID = primitive.NewObjectID()
	stored.SlotDate = domain.DayOf(availability.SlotDate)
	r.availabilities[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (r *fakeScheduleRepo) GetAvailabilityByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachAvailability, error) {
	a, ok := r.availabilities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeScheduleRepo) GetAvailabilityByCoachAndDate(ctx context.Context, coachID primitive.ObjectID, date time.Time) (*domain.CoachAvailability, error) {
	for _, a := range r.availabilities {
		if a.CoachID == coachID && a.SlotDate.Equal(domain.DayOf(date)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeScheduleRepo) InsertSlots(ctx context.Context, slots []domain.TimeSlot) ([]domain.TimeSlot, error) {
	inserted := make([]domain.TimeSlot, 0, len(slots))
	for _, s := range slots {
		s.ID = primitive.NewObjectID()
		stored := s
		r.slots[s.ID] = &stored
		inserted = append(inserted, s)
	}
	return inserted, nil
}

func (r *fakeScheduleRepo) InsertSlot(ctx context.Context, slot *domain.TimeSlot) (primitive.ObjectID, error) {
	stored := *slot
	stored.ID = primitive.NewObjectID()
	r.slots[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeScheduleRepo) DeleteSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) error {
	for id, s := range r.slots {
		if s.AvailabilityID == availabilityID {
			delete(r.slots, id)
		}
	}
	return nil
}

func (r *fakeScheduleRepo) GetSlotsByAvailability(ctx context.Context, availabilityID primitive.ObjectID) ([]domain.TimeSlot, error) {
	var out []domain.TimeSlot
	for _, s := range r.slots {
		if s.AvailabilityID == availabilityID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) GetSlotByID(ctx context.Context, id primitive.ObjectID) (*domain.TimeSlot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeScheduleRepo) SetSlotBooked(ctx context.Context, slotID primitive.ObjectID, booked bool) error {
	s, ok := r.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	s.IsBooked = booked
	return nil
}

func (r *fakeScheduleRepo) SetSlotStatus(ctx context.Context, slotID primitive.ObjectID, status domain.SlotStatus) error {
	s, ok := r.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	return nil
}

// --- Bookings ---

type fakeBookingRepo struct {
	bookings map[primitive.ObjectID]*domain.Booking

	// When set, Create returns this error instead of inserting. Used to
	// simulate losing the unique-index race.
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]*domain.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *domain.Booking) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	// The partial unique index: one active booking per (slot, day).
	for _, b := range r.bookings {
		if b.TimeSlotID == booking.TimeSlotID && b.BookingDay == booking.BookingDay && b.Status.IsActive() {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *booking
	stored.ID = primitive.NewObjectID()
	r.bookings[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) FindActiveBySlotAndDay(ctx context.Context, slotID primitive.ObjectID, day string) (*domain.Booking, error) {
	for _, b := range r.bookings {
		if b.TimeSlotID == slotID && b.BookingDay == day && b.Status.IsActive() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeBookingRepo) FindPendingRescheduleFor(ctx context.Context, originalID primitive.ObjectID) (*domain.Booking, error) {
	for _, b := range r.bookings {
		if b.RescheduleFromID != nil && *b.RescheduleFromID == originalID && b.Status == domain.BookingRescheduleRequest {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.BookingStatus) error {
	b, ok := r.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.AthleteID == athleteID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.bookings {
		if b.CoachID == coachID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByStatus(ctx context.Context, status domain.BookingStatus) (int64, error) {
	var n int64
	for _, b := range r.bookings {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

// --- Users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateCoachProfile(ctx context.Context, coachID primitive.ObjectID, profile *domain.CoachProfile) error {
	u, ok := r.users[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	u.Coach = &cp
	return nil
}

func (r *fakeUserRepo) FindCoaches(ctx context.Context, filter repository.CoachFilter) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role != domain.RoleCoach {
			continue
		}
		if filter.Specialty != "" && (u.Coach == nil || u.Coach.Specialty != filter.Specialty) {
			continue
		}
		if filter.Location != "" && (u.Coach == nil || u.Coach.Location != filter.Location) {
			continue
		}
		if filter.MaxPrice > 0 && (u.Coach == nil || u.Coach.PricePerHour > filter.MaxPrice) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- Reviews ---

type fakeReviewRepo struct {
	reviews map[primitive.ObjectID]*domain.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[primitive.ObjectID]*domain.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error) {
	for _, existing := range r.reviews {
		if existing.BookingID == review.BookingID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *review
	stored.ID = primitive.NewObjectID()
	r.reviews[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeReviewRepo) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*domain.Review, error) {
	for _, rv := range r.reviews {
		if rv.BookingID == bookingID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReviewRepo) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Review, error) {
	var out []domain.Review
	for _, rv := range r.reviews {
		if rv.CoachID == coachID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) AverageRatingForCoach(ctx context.Context, coachID primitive.ObjectID) (float64, error) {
	var sum, n float64
	for _, rv := range r.reviews {
		if rv.CoachID == coachID {
			sum += float64(rv.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

// --- Favorites ---

type fakeFavoriteRepo struct {
	favorites []domain.Favorite
}

func (r *fakeFavoriteRepo) Add(ctx context.Context, favorite *domain.Favorite) error {
	for _, f := range r.favorites {
		if f.AthleteID == favorite.AthleteID && f.CoachID == favorite.CoachID {
			return nil // Idempotent, like the mongo upsert
		}
	}
	stored := *favorite
	stored.ID = primitive.NewObjectID()
	r.favorites = append(r.favorites, stored)
	return nil
}

func (r *fakeFavoriteRepo) Remove(ctx context.Context, athleteID, coachID primitive.ObjectID) error {
	for i, f := range r.favorites {
		if f.AthleteID == athleteID && f.CoachID == coachID {
			r.favorites = append(r.favorites[:i], r.favorites[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeFavoriteRepo) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Favorite, error) {
	var out []domain.Favorite
	for _, f := range r.favorites {
		if f.AthleteID == athleteID {
			out = append(out, f)
		}
	}
	return out, nil
}

// --- File storage ---

type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}

// --- Notifier ---

// fakeNotifier records notifications. Safe for the post-commit goroutines the
// booking service fires.
type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNotifier) Notify(ctx context.Context, receiverID, senderID primitive.ObjectID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}
