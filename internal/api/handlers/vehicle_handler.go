package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/api/middleware"
	"rides/internal/services"
)

type VehicleHandler struct {
	vehicles *services.VehicleService
}

func NewVehicleHandler(vehicles *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type vehicleRequest struct {
	LicensePlate string `json:"license_plate" binding:"required"`
	Model        string `json:"model"`
	Capacity     int    `json:"capacity" binding:"required"`
}

// Create handles POST /api/vehicles. The vehicle belongs to the caller.
func (h *VehicleHandler) Create(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vehicle, err := h.vehicles.RegisterVehicle(c.Request.Context(), middleware.GetUserID(c), req.LicensePlate, req.Model, req.Capacity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// List handles GET /api/vehicles?driver=<id>.
func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.vehicles.ListVehicles(c.Request.Context(), c.Query("driver"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicles.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}
