package handler

import (
	"context"
	"net/http"
	"strings"

	"venue-geocoder/internal/models"

	"github.com/gin-gonic/gin"
)

// MaxBatchEvents bounds the number of events accepted by one batch request.
const MaxBatchEvents = 500

// ResolveHandler handles location resolution requests
type ResolveHandler struct {
	service ResolveService
}

// Service interface for dependency injection
type ResolveService interface {
	ResolveLocation(context.Context, models.EventLocationInput) *models.GeocodeResult
	ResolveBatch(context.Context, []models.EventLocationInput) map[string]*models.GeocodeResult
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(svc ResolveService) *ResolveHandler {
	return &ResolveHandler{service: svc}
}

// BatchRequest is the body of POST /resolve/batch and POST /positions.
type BatchRequest struct {
	Events []models.EventLocationInput `json:"events" binding:"required,min=1,max=500,dive"`
}

// BatchResponse maps every requested event ID to its result, or null.
type BatchResponse struct {
	Results map[string]*models.GeocodeResult `json:"results"`
}

// Resolve handles GET /resolve requests
//
//	@Summary	Resolve a free-text location
//	@Param		q		query		string	true	"raw location"
//	@Param		context	query		string	false	"extra context, e.g. the event city"
//	@Success	200		{object}	models.GeocodeResult
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/resolve [get]
func (h *ResolveHandler) Resolve(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	result := h.service.ResolveLocation(c.Request.Context(), models.EventLocationInput{
		ID:          "query",
		RawLocation: query,
		Context:     c.Query("context"),
	})
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no position available"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResolveBatch handles POST /resolve/batch requests
//
//	@Summary	Resolve a batch of event locations
//	@Param		body	body		BatchRequest	true	"events"
//	@Success	200		{object}	BatchResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/resolve/batch [post]
func (h *ResolveHandler) ResolveBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return
	}

	results := h.service.ResolveBatch(c.Request.Context(), req.Events)
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func bindError(err error) string {
	return "invalid request body: " + err.Error()
}
