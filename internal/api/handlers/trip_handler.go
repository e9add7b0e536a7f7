package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/api/middleware"
	"rides/internal/domain/entities"
	"rides/internal/services"
	"rides/pkg/utils"
)

// TripHandler serves passenger and driver trip endpoints.
type TripHandler struct {
	dispatch *services.DispatchService
	trips    *services.TripService
	fares    *services.FareService
	ratings  *services.RatingService
}

func NewTripHandler(
	dispatch *services.DispatchService,
	trips *services.TripService,
	fares *services.FareService,
	ratings *services.RatingService,
) *TripHandler {
	return &TripHandler{
		dispatch: dispatch,
		trips:    trips,
		fares:    fares,
		ratings:  ratings,
	}
}

// TripView is a trip as returned by the API: the stored record plus the fare
// computed at read time and the rating, if any.
type TripView struct {
	*entities.Trip
	Fare      *int64           `json:"fare"`
	FareQuote *utils.FareQuote `json:"fare_quote,omitempty"`
	Rating    *entities.Rating `json:"rating"`
}

func (h *TripHandler) view(c *gin.Context, trip *entities.Trip) (*TripView, error) {
	ctx := c.Request.Context()
	quote, err := h.fares.Quote(ctx, trip)
	if err != nil {
		return nil, err
	}
	rating, err := h.ratings.RatingForTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	v := &TripView{Trip: trip, FareQuote: quote, Rating: rating}
	if quote != nil {
		total := quote.TotalFare
		v.Fare = &total
	}
	return v, nil
}

func (h *TripHandler) respondTrip(c *gin.Context, status int, trip *entities.Trip) {
	v, err := h.view(c, trip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, v)
}

// RequestTrip handles POST /api/trips/request. The caller is the passenger.
func (h *TripHandler) RequestTrip(c *gin.Context) {
	trip, err := h.dispatch.RequestTrip(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondTrip(c, http.StatusCreated, trip)
}

// ListTrips handles GET /api/trips?driver=<id>.
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips, err := h.trips.ListTrips(c.Request.Context(), c.Query("driver"))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]*TripView, 0, len(trips))
	for _, trip := range trips {
		v, err := h.view(c, trip)
		if err != nil {
			respondError(c, err)
			return
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}

// GetTrip handles GET /api/trips/:id.
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.trips.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondTrip(c, http.StatusOK, trip)
}

// GetStatus handles GET /api/trips/:id/status.
func (h *TripHandler) GetStatus(c *gin.Context) {
	status, err := h.trips.GetTripStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GetFare handles GET /api/trips/:id/fare. A trip without a driver has
// "fare": null.
func (h *TripHandler) GetFare(c *gin.Context) {
	fare, err := h.fares.GetFare(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": c.Param("id"), "fare": fare})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition handles POST /api/trips/:id/transition with {"status": "..."}.
func (h *TripHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.transition(c, entities.TripStatus(req.Status))
}

// Start, Complete and Cancel are shorthands for Transition.
func (h *TripHandler) Start(c *gin.Context)    { h.transition(c, entities.TripStatusOngoing) }
func (h *TripHandler) Complete(c *gin.Context) { h.transition(c, entities.TripStatusCompleted) }
func (h *TripHandler) Cancel(c *gin.Context)   { h.transition(c, entities.TripStatusCancelled) }

func (h *TripHandler) transition(c *gin.Context, status entities.TripStatus) {
	trip, err := h.trips.TransitionTripAs(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondTrip(c, http.StatusOK, trip)
}

type ratingRequest struct {
	Score   int    `json:"score" binding:"required"`
	Comment string `json:"comment"`
}

// SubmitRating handles POST /api/trips/:id/rating.
func (h *TripHandler) SubmitRating(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rating, err := h.ratings.SubmitRating(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Score, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}
