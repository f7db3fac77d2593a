package handlers

import (
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetStaffDashboard returns staff dashboard data
// @Summary Staff Dashboard
// @Description Catalog, account and borrowing overview (Librarian/Admin)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetStaffDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetStaffDashboard(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
