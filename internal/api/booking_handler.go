package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingHandler holds the booking service dependency.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// --- Request/Response Structs ---

type CreateBookingRequest struct {
	CoachID string `json:"coachId" binding:"required"`
	SlotID  string `json:"slotId" binding:"required"`
	Date    string `json:"date" binding:"required"` // "2006-01-02"
	Notes   string `json:"notes"`
}

type RescheduleRequest struct {
	NewSlotID string `json:"newSlotId" binding:"required"`
	NewDate   string `json:"newDate" binding:"required"`
	Notes     string `json:"notes"`
}

type RescheduleResponseRequest struct {
	Decision service.RescheduleDecision `json:"decision" binding:"required,oneof=accept reject"`
}

type BookingResponse struct {
	ID               string               `json:"id"`
	AthleteID        string               `json:"athleteId"`
	CoachID          string               `json:"coachId"`
	TimeSlotID       string               `json:"timeSlotId"`
	BookingDate      time.Time            `json:"bookingDate"`
	DisplayTime      string               `json:"displayTime"` // e.g. "9:00 AM"
	Status           domain.BookingStatus `json:"status"`
	RescheduleFromID *string              `json:"rescheduleFromId,omitempty"`
	RequestedBy      domain.Role          `json:"requestedBy,omitempty"`
	Notes            string               `json:"notes,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
}

// --- Handler Methods ---

// CreateBooking godoc
// @Summary Book a coach's time slot
// @Description Athlete books an active, unbooked slot for a calendar date.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param booking body CreateBookingRequest true "Booking details"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Slot not found"
// @Failure 409 {object} gin.H "Slot already booked"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}
	slotID, err := primitive.ObjectIDFromHex(req.SlotID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid slot ID format")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "'date' must be in 2006-01-02 format")
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), actor.ID, coachID, slotID, date, req.Notes)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapBookingToResponse(booking))
}

// ListBookings godoc
// @Summary List the authenticated user's bookings
// @Description Coaches see bookings against their slots; athletes see bookings they made.
// @Tags Bookings
// @Produce json
// @Success 200 {array} BookingResponse
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	bookings, err := h.bookingService.ListForActor(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, MapBookingToResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Either party may cancel an active booking. A pending reschedule proposal is cancelled with it.
// @Tags Bookings
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} gin.H "Not a party to this booking"
// @Failure 404 {object} gin.H "Booking not found"
// @Failure 409 {object} gin.H "Booking not cancellable"
// @Router /bookings/{bookingId}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
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

	booking, err := h.bookingService.Cancel(c.Request.Context(), actor, bookingID)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapBookingToResponse(booking))
}

// FinishBooking godoc
// @Summary Mark a past session as finished
// @Description Coach-only. The session must have occurred already.
// @Tags Bookings
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} gin.H "Not the booking's coach"
// @Failure 404 {object} gin.H "Booking not found"
// @Failure 409 {object} gin.H "Booking not finishable"
// @Router /bookings/{bookingId}/finish [post]
func (h *BookingHandler) FinishBooking(c *gin.Context) {
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

	booking, err := h.bookingService.Finish(c.Request.Context(), actor.ID, bookingID)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapBookingToResponse(booking))
}

// RequestReschedule godoc
// @Summary Propose rescheduling a booking to a new slot and date
// @Description Creates a linked RESCHEDULE_REQUEST booking; the original stays live until the counter-party responds.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Param reschedule body RescheduleRequest true "New slot and date"
// @Success 201 {object} BookingResponse
// @Failure 403 {object} gin.H "Not a party to this booking"
// @Failure 404 {object} gin.H "Booking or slot not found"
// @Failure 409 {object} gin.H "Reschedule not allowed or already pending"
// @Router /bookings/{bookingId}/reschedule [post]
func (h *BookingHandler) RequestReschedule(c *gin.Context) {
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

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	newSlotID, err := primitive.ObjectIDFromHex(req.NewSlotID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid slot ID format")
		return
	}
	newDate, err := time.Parse(dateLayout, req.NewDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "'newDate' must be in 2006-01-02 format")
		return
	}

	proposal, err := h.bookingService.RequestReschedule(c.Request.Context(), actor, bookingID, newSlotID, newDate, req.Notes)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapBookingToResponse(proposal))
}

// RespondToReschedule godoc
// @Summary Accept or reject a pending reschedule proposal
// @Description Only the counter-party of the requesting side may respond. Accept cancels the original booking.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param bookingId path string true "Proposal booking ID"
// @Param response body RescheduleResponseRequest true "Decision"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} gin.H "Not allowed to respond"
// @Failure 404 {object} gin.H "Proposal not found"
// @Failure 409 {object} gin.H "Not a pending reschedule request"
// @Router /bookings/{bookingId}/reschedule/respond [post]
func (h *BookingHandler) RespondToReschedule(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	proposalID, err := primitive.ObjectIDFromHex(c.Param("bookingId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid booking ID format")
		return
	}

	var req RescheduleResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	proposal, err := h.bookingService.RespondToReschedule(c.Request.Context(), actor, proposalID, req.Decision)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapBookingToResponse(proposal))
}

// respondBookingError maps booking service errors onto HTTP statuses.
func (h *BookingHandler) respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrAvailabilityNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrNotBookingParty),
		errors.Is(err, service.ErrRescheduleSelfRespond):
		abortWithError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrSlotAlreadyBooked),
		errors.Is(err, service.ErrBookingAlreadyCancelled),
		errors.Is(err, service.ErrBookingAlreadyFinished),
		errors.Is(err, service.ErrBookingNotOccurred),
		errors.Is(err, service.ErrBookingNotFinishable),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrRescheduleNotAllowed),
		errors.Is(err, service.ErrReschedulePending),
		errors.Is(err, service.ErrNotRescheduleRequest):
		abortWithError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrSlotNotOwnedByCoach),
		errors.Is(err, service.ErrSlotInactive),
		errors.Is(err, service.ErrBookingDateMismatch),
		errors.Is(err, service.ErrBookingDateInPast):
		abortWithError(c, http.StatusBadRequest, err.Error())

	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// MapBookingToResponse converts a domain Booking to its DTO.
func MapBookingToResponse(booking *domain.Booking) BookingResponse {
	if booking == nil {
		return BookingResponse{}
	}

	resp := BookingResponse{
		ID:          booking.ID.Hex(),
		AthleteID:   booking.AthleteID.Hex(),
		CoachID:     booking.CoachID.Hex(),
		TimeSlotID:  booking.TimeSlotID.Hex(),
		BookingDate: booking.BookingDate,
		DisplayTime: booking.BookingDate.Format(displayClockLayout),
		Status:      booking.Status,
		RequestedBy: booking.RequestedBy,
		Notes:       booking.Notes,
		CreatedAt:   booking.CreatedAt,
	}

	if booking.RescheduleFromID != nil && *booking.RescheduleFromID != primitive.NilObjectID {
		fromHex := booking.RescheduleFromID.Hex()
		resp.RescheduleFromID = &fromHex
	}

	return resp
}
