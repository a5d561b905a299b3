package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pressmark/blog-platform/internal/core/ports"
)

// AdminHandler serves the admin-only surface.
type AdminHandler struct {
	users ports.UserRepository
}

func NewAdminHandler(users ports.UserRepository) *AdminHandler {
	return &AdminHandler{users: users}
}

type statsResponse struct {
	UsersByRole map[string]int64 `json:"users_by_role"`
}

// Stats reports account totals per role.
//
// @Summary      Platform account stats
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Failure      403  {object}  map[string]string
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	counts, err := h.users.CountByRole(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statsResponse{UsersByRole: counts})
}
