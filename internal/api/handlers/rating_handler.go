package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/api/middleware"
	"rides/internal/services"
)

// RatingHandler lists, shows and updates ratings. Ratings are created through
// the trip endpoint and are never deleted.
type RatingHandler struct {
	ratings *services.RatingService
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

func (h *RatingHandler) List(c *gin.Context) {
	ratings, err := h.ratings.ListRatings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func (h *RatingHandler) Get(c *gin.Context) {
	rating, err := h.ratings.GetRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

// ratingPatch is a partial update; absent fields keep their stored value.
type ratingPatch struct {
	Score   *int    `json:"score"`
	Comment *string `json:"comment"`
}

// Update handles PATCH /api/ratings/:id.
func (h *RatingHandler) Update(c *gin.Context) {
	var req ratingPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rating, err := h.ratings.UpdateRating(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Score, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}
