package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type coachHarness struct {
	userRepo    *fakeUserRepo
	bookingRepo *fakeBookingRepo
	reviewRepo  *fakeReviewRepo
	svc         CoachService

	coachID   primitive.ObjectID
	athleteID primitive.ObjectID
}

func newCoachHarness(t *testing.T) *coachHarness {
	t.Helper()

	h := &coachHarness{
		userRepo:    newFakeUserRepo(),
		bookingRepo: newFakeBookingRepo(),
		reviewRepo:  newFakeReviewRepo(),
	}
	h.svc = NewCoachService(h.userRepo, h.bookingRepo, h.reviewRepo, &fakeFavoriteRepo{}, fakeFileStorage{})

	coachID, err := h.userRepo.Create(context.Background(), &domain.User{
		Name:  "Coach Carter",
		Email: "carter@example.com",
		Role:  domain.RoleCoach,
		Coach: &domain.CoachProfile{Specialty: "basketball", Location: "Richmond", PricePerHour: 80},
	})
	if err != nil {
		t.Fatalf("seeding coach: %v", err)
	}
	h.coachID = coachID

	athleteID, err := h.userRepo.Create(context.Background(), &domain.User{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  domain.RoleAthlete,
	})
	if err != nil {
		t.Fatalf("seeding athlete: %v", err)
	}
	h.athleteID = athleteID
	return h
}

// finishedBooking inserts a FINISHED booking between the harness athlete and coach.
func (h *coachHarness) finishedBooking(t *testing.T) primitive.ObjectID {
	t.Helper()
	id, err := h.bookingRepo.Create(context.Background(), &domain.Booking{
		AthleteID:  h.athleteID,
		CoachID:    h.coachID,
		TimeSlotID: primitive.NewObjectID(),
		BookingDay: "2025-06-02",
		Status:     domain.BookingFinished,
	})
	if err != nil {
		t.Fatalf("seeding booking: %v", err)
	}
	return id
}

func TestFindCoachesFilters(t *testing.T) {
	h := newCoachHarness(t)

	if _, err := h.userRepo.Create(context.Background(), &domain.User{
		Name:  "Coach Taylor",
		Email: "taylor@example.com",
		Role:  domain.RoleCoach,
		Coach: &domain.CoachProfile{Specialty: "football", Location: "Dillon", PricePerHour: 120},
	}); err != nil {
		t.Fatalf("seeding second coach: %v", err)
	}

	all, err := h.svc.FindCoaches(context.Background(), repository.CoachFilter{})
	if err != nil {
		t.Fatalf("FindCoaches: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered: got %d coaches, want 2", len(all))
	}

	cheap, err := h.svc.FindCoaches(context.Background(), repository.CoachFilter{MaxPrice: 100})
	if err != nil {
		t.Fatalf("FindCoaches maxPrice: %v", err)
	}
	if len(cheap) != 1 || cheap[0].Name != "Coach Carter" {
		t.Fatalf("maxPrice filter: got %d coaches, want just Coach Carter", len(cheap))
	}
}

func TestGetCoachAggregatesReviews(t *testing.T) {
	h := newCoachHarness(t)

	first := h.finishedBooking(t)
	second := h.finishedBooking(t)
	if _, err := h.svc.CreateReview(context.Background(), h.athleteID, first, 5, "great"); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if _, err := h.svc.CreateReview(context.Background(), h.athleteID, second, 4, "good"); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	detail, err := h.svc.GetCoach(context.Background(), h.coachID)
	if err != nil {
		t.Fatalf("GetCoach: %v", err)
	}
	if detail.AverageRating != 4.5 {
		t.Errorf("average rating = %v, want 4.5", detail.AverageRating)
	}
	if len(detail.Reviews) != 2 {
		t.Errorf("got %d reviews, want 2", len(detail.Reviews))
	}
}

func TestGetCoachRejectsNonCoach(t *testing.T) {
	h := newCoachHarness(t)

	_, err := h.svc.GetCoach(context.Background(), h.athleteID)
	if !errors.Is(err, ErrNotACoach) {
		t.Fatalf("expected ErrNotACoach, got %v", err)
	}

	_, err = h.svc.GetCoach(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrCoachNotFound) {
		t.Fatalf("expected ErrCoachNotFound, got %v", err)
	}
}

func TestCreateReviewRules(t *testing.T) {
	h := newCoachHarness(t)
	bookingID := h.finishedBooking(t)

	t.Run("rating bounds", func(t *testing.T) {
		for _, rating := range []int{0, 6, -1} {
			if _, err := h.svc.CreateReview(context.Background(), h.athleteID, bookingID, rating, ""); !errors.Is(err, ErrInvalidRating) {
				t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
			}
		}
	})

	t.Run("wrong athlete", func(t *testing.T) {
		_, err := h.svc.CreateReview(context.Background(), primitive.NewObjectID(), bookingID, 4, "")
		if !errors.Is(err, ErrReviewNotByAthlete) {
			t.Fatalf("expected ErrReviewNotByAthlete, got %v", err)
		}
	})

	t.Run("unfinished booking", func(t *testing.T) {
		pendingID, err := h.bookingRepo.Create(context.Background(), &domain.Booking{
			AthleteID:  h.athleteID,
			CoachID:    h.coachID,
			TimeSlotID: primitive.NewObjectID(),
			BookingDay: "2025-06-03",
			Status:     domain.BookingConfirmed,
		})
		if err != nil {
			t.Fatalf("seeding booking: %v", err)
		}
		if _, err := h.svc.CreateReview(context.Background(), h.athleteID, pendingID, 4, ""); !errors.Is(err, ErrReviewNotAllowed) {
			t.Fatalf("expected ErrReviewNotAllowed, got %v", err)
		}
	})

	t.Run("one review per booking", func(t *testing.T) {
		if _, err := h.svc.CreateReview(context.Background(), h.athleteID, bookingID, 5, "first"); err != nil {
			t.Fatalf("first review: %v", err)
		}
		_, err := h.svc.CreateReview(context.Background(), h.athleteID, bookingID, 3, "second")
		if !errors.Is(err, ErrReviewAlreadyExists) {
			t.Fatalf("expected ErrReviewAlreadyExists, got %v", err)
		}
	})
}

func TestFavoritesRoundTrip(t *testing.T) {
	h := newCoachHarness(t)
	ctx := context.Background()

	if err := h.svc.AddFavorite(ctx, h.athleteID, h.coachID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	// Adding twice stays idempotent.
	if err := h.svc.AddFavorite(ctx, h.athleteID, h.coachID); err != nil {
		t.Fatalf("second AddFavorite: %v", err)
	}

	coaches, err := h.svc.ListFavorites(ctx, h.athleteID)
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(coaches) != 1 || coaches[0].ID != h.coachID {
		t.Fatalf("favorites = %d entries, want exactly the coach", len(coaches))
	}

	if err := h.svc.RemoveFavorite(ctx, h.athleteID, h.coachID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if err := h.svc.RemoveFavorite(ctx, h.athleteID, h.coachID); !errors.Is(err, ErrCoachNotFound) {
		t.Fatalf("expected ErrCoachNotFound removing twice, got %v", err)
	}
}

func TestAddFavoriteRequiresCoach(t *testing.T) {
	h := newCoachHarness(t)

	err := h.svc.AddFavorite(context.Background(), h.athleteID, h.athleteID)
	if !errors.Is(err, ErrNotACoach) {
		t.Fatalf("expected ErrNotACoach, got %v", err)
	}
}

func TestRequestPhotoUpload(t *testing.T) {
	h := newCoachHarness(t)

	uploadURL, objectKey, err := h.svc.RequestPhotoUpload(context.Background(), h.coachID, "image/jpeg")
	if err != nil {
		t.Fatalf("RequestPhotoUpload: %v", err)
	}
	if !strings.HasPrefix(objectKey, "coaches/"+h.coachID.Hex()+"/photo/") {
		t.Errorf("object key %q not namespaced under the coach", objectKey)
	}
	if !strings.Contains(uploadURL, objectKey) {
		t.Errorf("upload URL %q does not reference the object key", uploadURL)
	}

	// The key is recorded so the next profile read can resolve the photo.
	coach, err := h.userRepo.GetByID(context.Background(), h.coachID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if coach.Coach == nil || coach.Coach.PhotoKey != objectKey {
		t.Error("photo key was not stored on the coach profile")
	}
}

func TestUpdateProfilePreservesPhotoKey(t *testing.T) {
	h := newCoachHarness(t)

	_, objectKey, err := h.svc.RequestPhotoUpload(context.Background(), h.coachID, "image/png")
	if err != nil {
		t.Fatalf("RequestPhotoUpload: %v", err)
	}

	updated, err := h.svc.UpdateProfile(context.Background(), h.coachID, &domain.CoachProfile{
		Specialty:    "tennis",
		PricePerHour: 95,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Coach.Specialty != "tennis" {
		t.Errorf("specialty = %q, want tennis", updated.Coach.Specialty)
	}
	if updated.Coach.PhotoKey != objectKey {
		t.Error("profile update must not drop the stored photo key")
	}
}
