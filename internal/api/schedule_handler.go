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

// Wire formats for dates and clock times in schedule requests.
const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// Human-facing slot times render in 12-hour form, e.g. "9:00 AM".
	displayClockLayout = "3:04 PM"
)

// ScheduleHandler holds the schedule and subscription service dependencies.
type ScheduleHandler struct {
	scheduleService     service.ScheduleService
	subscriptionService service.SubscriptionService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService, subscriptionService service.SubscriptionService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService:     scheduleService,
		subscriptionService: subscriptionService,
	}
}

// --- Request/Response Structs ---

type GenerateSlotsRequest struct {
	Date            string `json:"date" binding:"required"`      // "2006-01-02"
	StartTime       string `json:"startTime" binding:"required"` // "15:04", 24h
	EndTime         string `json:"endTime" binding:"required"`
	IntervalMinutes int    `json:"intervalMinutes"` // 0 means the default (60)
}

type AddSlotRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

type TimeSlotResponse struct {
	ID        string            `json:"id"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Display   string            `json:"display"` // e.g. "9:00 AM - 10:00 AM"
	Status    domain.SlotStatus `json:"status"`
	IsBooked  bool              `json:"isBooked"`
}

type AvailabilityResponse struct {
	ID        string    `json:"id"`
	CoachID   string    `json:"coachId"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Active    bool      `json:"active"`
}

type ScheduleResponse struct {
	Availability AvailabilityResponse `json:"availability"`
	Slots        []TimeSlotResponse   `json:"slots"`
}

// --- Handler Methods ---

// GenerateSlots godoc
// @Summary Set working hours for a date and regenerate its slots
// @Description Replaces the coach's availability window for the date and tiles it into bookable slots. Requires an active subscription.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param window body GenerateSlotsRequest true "Working window"
// @Success 201 {object} ScheduleResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 402 {object} gin.H "Subscription required"
// @Failure 409 {object} gin.H "Window contains booked slots"
// @Router /coach/schedule [post]
func (h *ScheduleHandler) GenerateSlots(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	date, start, end, err := parseWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Publishing bookable hours is the paid side of the marketplace.
	active, err := h.subscriptionService.HasActiveSubscription(c.Request.Context(), actor.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to check subscription status")
		return
	}
	if !active {
		abortWithError(c, http.StatusPaymentRequired, service.ErrSubscriptionNeeded.Error())
		return
	}

	interval := time.Duration(req.IntervalMinutes) * time.Minute
	schedule, err := h.scheduleService.GenerateSlots(c.Request.Context(), actor.ID, date, start, end, interval)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWindow) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrWindowHasBookedSlots) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate schedule")
		}
		return
	}

	c.JSON(http.StatusCreated, MapScheduleToResponse(schedule))
}

// AddSlot godoc
// @Summary Add one slot to the coach's day
// @Tags Schedule
// @Accept json
// @Produce json
// @Param slot body AddSlotRequest true "Slot times"
// @Success 201 {object} TimeSlotResponse
// @Failure 400 {object} gin.H "Invalid input or slot outside window"
// @Failure 409 {object} gin.H "Slot overlaps an existing slot"
// @Router /coach/schedule/slots [post]
func (h *ScheduleHandler) AddSlot(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	date, start, end, err := parseWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	slot, conflict, err := h.scheduleService.AddSingleSlot(c.Request.Context(), actor.ID, date, start, end)
	if err != nil {
		if errors.Is(err, service.ErrSlotOverlap) {
			payload := gin.H{"error": err.Error()}
			if conflict != nil && conflict.Conflicting != nil {
				payload["conflictingSlot"] = MapSlotToResponse(conflict.Conflicting)
			}
			c.AbortWithStatusJSON(http.StatusConflict, payload)
		} else if errors.Is(err, service.ErrSlotOutsideWindow) || errors.Is(err, service.ErrInvalidWindow) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add slot")
		}
		return
	}

	c.JSON(http.StatusCreated, MapSlotToResponse(slot))
}

// ToggleSlot godoc
// @Summary Flip a slot between ACTIVE and INACTIVE
// @Tags Schedule
// @Produce json
// @Param slotId path string true "Slot ID"
// @Success 200 {object} TimeSlotResponse
// @Failure 403 {object} gin.H "Not the slot owner"
// @Failure 404 {object} gin.H "Slot not found"
// @Failure 409 {object} gin.H "Slot is booked"
// @Router /coach/schedule/slots/{slotId}/toggle [patch]
func (h *ScheduleHandler) ToggleSlot(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	slotID, err := primitive.ObjectIDFromHex(c.Param("slotId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid slot ID format")
		return
	}

	slot, err := h.scheduleService.ToggleSlot(c.Request.Context(), actor.ID, slotID)
	if err != nil {
		if errors.Is(err, service.ErrSlotNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrNotSlotOwner) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrSlotBookedActive) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to toggle slot")
		}
		return
	}

	c.JSON(http.StatusOK, MapSlotToResponse(slot))
}

// GetMySchedule godoc
// @Summary Get the authenticated coach's schedule for a date
// @Tags Schedule
// @Produce json
// @Param date query string true "Date (2006-01-02)"
// @Success 200 {object} ScheduleResponse
// @Failure 404 {object} gin.H "No availability for this date"
// @Router /coach/schedule [get]
func (h *ScheduleHandler) GetMySchedule(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	h.respondSchedule(c, actor.ID)
}

// GetCoachSchedule godoc
// @Summary Get a coach's schedule for a date
// @Description Athletes browse a coach's open slots here before booking.
// @Tags Schedule
// @Produce json
// @Param coachId path string true "Coach ID"
// @Param date query string true "Date (2006-01-02)"
// @Success 200 {object} ScheduleResponse
// @Failure 404 {object} gin.H "No availability for this date"
// @Router /coaches/{coachId}/schedule [get]
func (h *ScheduleHandler) GetCoachSchedule(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}
	h.respondSchedule(c, coachID)
}

func (h *ScheduleHandler) respondSchedule(c *gin.Context, coachID primitive.ObjectID) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'date' must be in 2006-01-02 format")
		return
	}

	schedule, err := h.scheduleService.GetSchedule(c.Request.Context(), coachID, date)
	if err != nil {
		if errors.Is(err, service.ErrAvailabilityNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load schedule")
		}
		return
	}

	c.JSON(http.StatusOK, MapScheduleToResponse(schedule))
}

// --- Mapping and Parsing Helpers ---

// parseWindow parses a calendar date plus 24h clock strings into the UTC
// instants the service layer expects.
func parseWindow(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return date, start, end, errors.New("'date' must be in 2006-01-02 format")
	}
	startClock, err := time.Parse(clockLayout, startStr)
	if err != nil {
		return date, start, end, errors.New("'startTime' must be in 15:04 format")
	}
	endClock, err := time.Parse(clockLayout, endStr)
	if err != nil {
		return date, start, end, errors.New("'endTime' must be in 15:04 format")
	}
	start = domain.AtTimeOfDay(date, startClock)
	end = domain.AtTimeOfDay(date, endClock)
	return date, start, end, nil
}

// MapSlotToResponse converts a domain TimeSlot to its DTO.
func MapSlotToResponse(slot *domain.TimeSlot) TimeSlotResponse {
	if slot == nil {
		return TimeSlotResponse{}
	}
	return TimeSlotResponse{
		ID:        slot.ID.Hex(),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Display:   slot.StartTime.Format(displayClockLayout) + " - " + slot.EndTime.Format(displayClockLayout),
		Status:    slot.Status,
		IsBooked:  slot.IsBooked,
	}
}

// MapScheduleToResponse converts a day's availability plus slots to the DTO.
func MapScheduleToResponse(schedule *service.GeneratedSchedule) ScheduleResponse {
	if schedule == nil || schedule.Availability == nil {
		return ScheduleResponse{}
	}
	resp := ScheduleResponse{
		Availability: AvailabilityResponse{
			ID:        schedule.Availability.ID.Hex(),
			CoachID:   schedule.Availability.CoachID.Hex(),
			Date:      schedule.Availability.SlotDate.Format(dateLayout),
			StartTime: schedule.Availability.StartTime,
			EndTime:   schedule.Availability.EndTime,
			Active:    schedule.Availability.Active,
		},
		Slots: make([]TimeSlotResponse, 0, len(schedule.Slots)),
	}
	for i := range schedule.Slots {
		resp.Slots = append(resp.Slots, MapSlotToResponse(&schedule.Slots[i]))
	}
	return resp
}
