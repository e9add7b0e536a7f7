package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rides/internal/api/middleware"
	"rides/internal/services"
)

const defaultTopDrivers = 10

// DriverHandler serves driver listings, the top-drivers ranking and the
// availability toggle.
type DriverHandler struct {
	ratings *services.RatingService
	users   *services.UserService
}

func NewDriverHandler(ratings *services.RatingService, users *services.UserService) *DriverHandler {
	return &DriverHandler{ratings: ratings, users: users}
}

// ListDrivers handles GET /api/drivers.
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.ratings.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drivers)
}

// TopDrivers handles GET /api/drivers/top?n=5.
func (h *DriverHandler) TopDrivers(c *gin.Context) {
	n := defaultTopDrivers
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, errors.New("n must be an integer"))
			return
		}
		n = v
	}
	top, err := h.ratings.TopDrivers(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability handles PATCH /api/drivers/me/availability.
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.SetAvailability(c.Request.Context(), middleware.GetUserID(c), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
