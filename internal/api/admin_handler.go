package api

import (
	"net/http"

	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler holds the admin service dependency.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Dashboard godoc
// @Summary Platform-wide headline counts
// @Description Admin-only. User, booking and subscription totals for the dashboard.
// @Tags Admin
// @Produce json
// @Success 200 {object} service.DashboardMetrics
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	metrics, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load dashboard metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}
