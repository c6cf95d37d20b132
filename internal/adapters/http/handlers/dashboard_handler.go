package handlers

import (
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// DashboardResponse is the dashboard payload
type DashboardResponse struct {
	*services.DashboardData
	RecentLoans []LoanRowResponse `json:"recentLoans"`
}

// GetDashboard returns dashboard data
// @Summary Get dashboard
// @Description Totals, overdue count, top readers, monthly loans and recent activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetDashboard(c.UserContext())
	if err != nil {
		return handleServiceError(c, err, "Failed to get dashboard")
	}

	recent := make([]LoanRowResponse, 0, len(data.RecentLoans))
	for _, r := range data.RecentLoans {
		recent = append(recent, newLoanRowResponse(r))
	}

	return response.Success(c, "", DashboardResponse{DashboardData: data, RecentLoans: recent})
}
