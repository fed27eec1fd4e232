package service

import (
	"context"
	"errors"
	"fmt"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"
	"fieldhouse/coach-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCoachNotFound       = errors.New("coach not found")
	ErrNotACoach           = errors.New("user found but is not a coach")
	ErrReviewNotAllowed    = errors.New("only finished bookings can be reviewed")
	ErrReviewNotByAthlete  = errors.New("only the booking's athlete can review it")
	ErrReviewAlreadyExists = errors.New("this booking has already been reviewed")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
)

// CoachDetail is a coach with their aggregated review data.
type CoachDetail struct {
	Coach         *domain.User
	AverageRating float64
	Reviews       []domain.Review
	PhotoURL      string
}

// --- Service Interface ---
type CoachService interface {
	// Discovery
	FindCoaches(ctx context.Context, filter repository.CoachFilter) ([]domain.User, error)
	GetCoach(ctx context.Context, coachID primitive.ObjectID) (*CoachDetail, error)

	// Profile
	UpdateProfile(ctx context.Context, coachID primitive.ObjectID, profile *domain.CoachProfile) (*domain.User, error)
	RequestPhotoUpload(ctx context.Context, coachID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)

	// Reviews
	CreateReview(ctx context.Context, athleteID, bookingID primitive.ObjectID, rating int, comment string) (*domain.Review, error)

	// Favorites
	AddFavorite(ctx context.Context, athleteID, coachID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, athleteID, coachID primitive.ObjectID) error
	ListFavorites(ctx context.Context, athleteID primitive.ObjectID) ([]domain.User, error)
}

// --- Service Implementation ---

// coachService implements the CoachService interface.
type coachService struct {
	userRepo     repository.UserRepository
	bookingRepo  repository.BookingRepository
	reviewRepo   repository.ReviewRepository
	favoriteRepo repository.FavoriteRepository
	fileStorage  storage.FileStorage
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	reviewRepo repository.ReviewRepository,
	favoriteRepo repository.FavoriteRepository,
	fileStorage storage.FileStorage,
) CoachService {
	return &coachService{
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		reviewRepo:   reviewRepo,
		favoriteRepo: favoriteRepo,
		fileStorage:  fileStorage,
	}
}

// === Discovery ===

func (s *coachService) FindCoaches(ctx context.Context, filter repository.CoachFilter) ([]domain.User, error) {
	coaches, err := s.userRepo.FindCoaches(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range coaches {
		coaches[i].PasswordHash = ""
	}
	return coaches, nil
}

func (s *coachService) GetCoach(ctx context.Context, coachID primitive.ObjectID) (*CoachDetail, error) {
	coach, err := s.getCoachUser(ctx, coachID)
	if err != nil {
		return nil, err
	}

	rating, err := s.reviewRepo.AverageRatingForCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}

	detail := &CoachDetail{
		Coach:         coach,
		AverageRating: rating,
		Reviews:       reviews,
	}

	if coach.Coach != nil && coach.Coach.PhotoKey != "" {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, coach.Coach.PhotoKey, storage.DefaultPresignedURLExpiry)
		if err == nil {
			detail.PhotoURL = url
		}
		// A broken photo URL should not fail the whole coach page.
	}
	return detail, nil
}

// === Profile ===

func (s *coachService) UpdateProfile(ctx context.Context, coachID primitive.ObjectID, profile *domain.CoachProfile) (*domain.User, error) {
	if coachID == primitive.NilObjectID || profile == nil {
		return nil, errors.New("coach ID and profile are required")
	}

	// Preserve the stored photo key; it is managed by the upload flow.
	existing, err := s.getCoachUser(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if existing.Coach != nil && profile.PhotoKey == "" {
		profile.PhotoKey = existing.Coach.PhotoKey
	}

	if err := s.userRepo.UpdateCoachProfile(ctx, coachID, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	existing.Coach = profile
	return existing, nil
}

// RequestPhotoUpload returns a presigned PUT URL for the coach's profile
// photo and the object key to store once the upload completes.
func (s *coachService) RequestPhotoUpload(ctx context.Context, coachID primitive.ObjectID, contentType string) (string, string, error) {
	coach, err := s.getCoachUser(ctx, coachID)
	if err != nil {
		return "", "", err
	}

	objectKey := fmt.Sprintf("coaches/%s/photo/%s", coach.ID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	// Record the key up front; the client PUTs to the URL afterwards.
	profile := coach.Coach
	if profile == nil {
		profile = &domain.CoachProfile{}
	}
	profile.PhotoKey = objectKey
	if err := s.userRepo.UpdateCoachProfile(ctx, coachID, profile); err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// === Reviews ===

func (s *coachService) CreateReview(ctx context.Context, athleteID, bookingID primitive.ObjectID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.AthleteID != athleteID {
		return nil, ErrReviewNotByAthlete
	}
	if booking.Status != domain.BookingFinished {
		return nil, ErrReviewNotAllowed
	}

	review := &domain.Review{
		BookingID: bookingID,
		AthleteID: athleteID,
		CoachID:   booking.CoachID,
		Rating:    rating,
		Comment:   comment,
	}
	reviewID, err := s.reviewRepo.Create(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrReviewAlreadyExists
		}
		return nil, err
	}
	review.ID = reviewID
	return review, nil
}

// === Favorites ===

func (s *coachService) AddFavorite(ctx context.Context, athleteID, coachID primitive.ObjectID) error {
	if _, err := s.getCoachUser(ctx, coachID); err != nil {
		return err
	}
	return s.favoriteRepo.Add(ctx, &domain.Favorite{AthleteID: athleteID, CoachID: coachID})
}

func (s *coachService) RemoveFavorite(ctx context.Context, athleteID, coachID primitive.ObjectID) error {
	err := s.favoriteRepo.Remove(ctx, athleteID, coachID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCoachNotFound
	}
	return err
}

func (s *coachService) ListFavorites(ctx context.Context, athleteID primitive.ObjectID) ([]domain.User, error) {
	favorites, err := s.favoriteRepo.ListByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	coaches := make([]domain.User, 0, len(favorites))
	for _, fav := range favorites {
		coach, err := s.userRepo.GetByID(ctx, fav.CoachID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // Coach account removed since favoriting
			}
			return nil, err
		}
		coach.PasswordHash = ""
		coaches = append(coaches, *coach)
	}
	return coaches, nil
}

// getCoachUser loads a user and verifies they hold the coach role.
func (s *coachService) getCoachUser(ctx context.Context, coachID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if !user.IsCoach() {
		return nil, ErrNotACoach
	}
	user.PasswordHash = ""
	return user, nil
}
