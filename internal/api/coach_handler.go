package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"
	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler holds the coach service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- Request/Response Structs ---

type UpdateCoachProfileRequest struct {
	Specialty    string  `json:"specialty"`
	Location     string  `json:"location"`
	PricePerHour float64 `json:"pricePerHour" binding:"omitempty,gte=0"`
	Bio          string  `json:"bio"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PhotoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	AthleteID string    `json:"athleteId"`
	CoachID   string    `json:"coachId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CoachDetailResponse struct {
	Coach         UserResponse     `json:"coach"`
	AverageRating float64          `json:"averageRating"`
	Reviews       []ReviewResponse `json:"reviews"`
	PhotoURL      string           `json:"photoUrl,omitempty"`
}

// --- Handler Methods ---

// FindCoaches godoc
// @Summary Browse coaches
// @Description Lists coaches, optionally filtered by specialty, location and maximum hourly price.
// @Tags Coaches
// @Produce json
// @Param specialty query string false "Specialty filter"
// @Param location query string false "Location filter"
// @Param maxPrice query number false "Maximum price per hour"
// @Success 200 {array} UserResponse
// @Router /coaches [get]
func (h *CoachHandler) FindCoaches(c *gin.Context) {
	filter := repository.CoachFilter{
		Specialty: c.Query("specialty"),
		Location:  c.Query("location"),
	}
	if raw := c.Query("maxPrice"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxPrice < 0 {
			abortWithError(c, http.StatusBadRequest, "Query parameter 'maxPrice' must be a non-negative number")
			return
		}
		filter.MaxPrice = maxPrice
	}

	coaches, err := h.coachService.FindCoaches(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list coaches")
		return
	}

	resp := make([]UserResponse, 0, len(coaches))
	for i := range coaches {
		resp = append(resp, MapUserToResponse(&coaches[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetCoach godoc
// @Summary Get one coach's public profile with reviews
// @Tags Coaches
// @Produce json
// @Param coachId path string true "Coach ID"
// @Success 200 {object} CoachDetailResponse
// @Failure 404 {object} gin.H "Coach not found"
// @Router /coaches/{coachId} [get]
func (h *CoachHandler) GetCoach(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}

	detail, err := h.coachService.GetCoach(c.Request.Context(), coachID)
	if err != nil {
		if errors.Is(err, service.ErrCoachNotFound) || errors.Is(err, service.ErrNotACoach) {
			abortWithError(c, http.StatusNotFound, service.ErrCoachNotFound.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load coach")
		}
		return
	}

	c.JSON(http.StatusOK, MapCoachDetailToResponse(detail))
}

// UpdateProfile godoc
// @Summary Update the authenticated coach's profile
// @Tags Coaches
// @Accept json
// @Produce json
// @Param profile body UpdateCoachProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Router /coach/profile [put]
func (h *CoachHandler) UpdateProfile(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req UpdateCoachProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.coachService.UpdateProfile(c.Request.Context(), actor.ID, &domain.CoachProfile{
		Specialty:    req.Specialty,
		Location:     req.Location,
		PricePerHour: req.PricePerHour,
		Bio:          req.Bio,
	})
	if err != nil {
		if errors.Is(err, service.ErrCoachNotFound) || errors.Is(err, service.ErrNotACoach) {
			abortWithError(c, http.StatusNotFound, service.ErrCoachNotFound.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// RequestPhotoUpload godoc
// @Summary Get a presigned URL for uploading a profile photo
// @Description The client PUTs the photo bytes directly to the returned URL with the declared Content-Type.
// @Tags Coaches
// @Accept json
// @Produce json
// @Param upload body PhotoUploadRequest true "Upload details"
// @Success 200 {object} PhotoUploadResponse
// @Router /coach/profile/photo [post]
func (h *CoachHandler) RequestPhotoUpload(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, objectKey, err := h.coachService.RequestPhotoUpload(c.Request.Context(), actor.ID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrCoachNotFound) || errors.Is(err, service.ErrNotACoach) {
			abortWithError(c, http.StatusNotFound, service.ErrCoachNotFound.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to prepare photo upload")
		}
		return
	}

	c.JSON(http.StatusOK, PhotoUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// CreateReview godoc
// @Summary Review a finished booking
// @Description Athlete-only; one review per booking.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Param review body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 403 {object} gin.H "Not the booking's athlete"
// @Failure 409 {object} gin.H "Already reviewed or booking not finished"
// @Router /bookings/{bookingId}/review [post]
func (h *CoachHandler) CreateReview(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Param("bookingId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid booking ID format")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	review, err := h.coachService.CreateReview(c.Request.Context(), actor.ID, bookingID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrReviewNotByAthlete):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrReviewNotAllowed), errors.Is(err, service.ErrReviewAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidRating):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create review")
		}
		return
	}

	c.JSON(http.StatusCreated, MapReviewToResponse(review))
}

// AddFavorite godoc
// @Summary Add a coach to the athlete's favorites
// @Tags Favorites
// @Produce json
// @Param coachId path string true "Coach ID"
// @Success 204 "Added"
// @Failure 404 {object} gin.H "Coach not found"
// @Router /favorites/{coachId} [post]
func (h *CoachHandler) AddFavorite(c *gin.Context) {
	actor, coachID, ok := h.favoriteArgs(c)
	if !ok {
		return
	}

	if err := h.coachService.AddFavorite(c.Request.Context(), actor.ID, coachID); err != nil {
		if errors.Is(err, service.ErrCoachNotFound) || errors.Is(err, service.ErrNotACoach) {
			abortWithError(c, http.StatusNotFound, service.ErrCoachNotFound.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add favorite")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveFavorite godoc
// @Summary Remove a coach from the athlete's favorites
// @Tags Favorites
// @Produce json
// @Param coachId path string true "Coach ID"
// @Success 204 "Removed"
// @Failure 404 {object} gin.H "Favorite not found"
// @Router /favorites/{coachId} [delete]
func (h *CoachHandler) RemoveFavorite(c *gin.Context) {
	actor, coachID, ok := h.favoriteArgs(c)
	if !ok {
		return
	}

	if err := h.coachService.RemoveFavorite(c.Request.Context(), actor.ID, coachID); err != nil {
		if errors.Is(err, service.ErrCoachNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to remove favorite")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFavorites godoc
// @Summary List the athlete's favorite coaches
// @Tags Favorites
// @Produce json
// @Success 200 {array} UserResponse
// @Router /favorites [get]
func (h *CoachHandler) ListFavorites(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	coaches, err := h.coachService.ListFavorites(c.Request.Context(), actor.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list favorites")
		return
	}

	resp := make([]UserResponse, 0, len(coaches))
	for i := range coaches {
		resp = append(resp, MapUserToResponse(&coaches[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// favoriteArgs extracts the actor and the coach path parameter shared by the
// favorite endpoints.
func (h *CoachHandler) favoriteArgs(c *gin.Context) (domain.Actor, primitive.ObjectID, bool) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return domain.Actor{}, primitive.NilObjectID, false
	}
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return domain.Actor{}, primitive.NilObjectID, false
	}
	return actor, coachID, true
}

// --- Mapping Helpers ---

// MapReviewToResponse converts a domain Review to its DTO.
func MapReviewToResponse(review *domain.Review) ReviewResponse {
	if review == nil {
		return ReviewResponse{}
	}
	return ReviewResponse{
		ID:        review.ID.Hex(),
		BookingID: review.BookingID.Hex(),
		AthleteID: review.AthleteID.Hex(),
		CoachID:   review.CoachID.Hex(),
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

// MapCoachDetailToResponse converts a CoachDetail to its DTO.
func MapCoachDetailToResponse(detail *service.CoachDetail) CoachDetailResponse {
	if detail == nil {
		return CoachDetailResponse{}
	}
	resp := CoachDetailResponse{
		Coach:         MapUserToResponse(detail.Coach),
		AverageRating: detail.AverageRating,
		Reviews:       make([]ReviewResponse, 0, len(detail.Reviews)),
		PhotoURL:      detail.PhotoURL,
	}
	for i := range detail.Reviews {
		resp.Reviews = append(resp.Reviews, MapReviewToResponse(&detail.Reviews[i]))
	}
	return resp
}
