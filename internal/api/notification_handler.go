package api

import (
	"errors"
	"net/http"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"
	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler holds the notification service dependency.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// --- Response Structs ---

type NotificationResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// ListNotifications godoc
// @Summary List the authenticated user's notifications, newest first
// @Tags Notifications
// @Produce json
// @Success 200 {array} NotificationResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), actor.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	resp := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		resp = append(resp, MapNotificationToResponse(&notifications[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// MarkNotificationRead godoc
// @Summary Mark one of the user's notifications as read
// @Tags Notifications
// @Produce json
// @Param notificationId path string true "Notification ID"
// @Success 204 "Marked read"
// @Failure 404 {object} gin.H "Notification not found"
// @Router /notifications/{notificationId}/read [post]
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("notificationId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), actor.ID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Notification not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to mark notification as read")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// MapNotificationToResponse converts a domain Notification to its DTO.
func MapNotificationToResponse(n *domain.Notification) NotificationResponse {
	if n == nil {
		return NotificationResponse{}
	}
	resp := NotificationResponse{
		ID:        n.ID.Hex(),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.SenderID != primitive.NilObjectID {
		resp.SenderID = n.SenderID.Hex()
	}
	return resp
}
