package handler

import (
	"context"
	"net/http"

	"venue-geocoder/internal/models"

	"github.com/gin-gonic/gin"
)

// PositionHandler handles map-position and clustering requests
type PositionHandler struct {
	service PositionService
}

// Service interface for dependency injection
type PositionService interface {
	GetOptimalPositions(context.Context, []models.EventLocationInput) map[string]models.EventPosition
	ClusterEvents([]models.ResolvedEvent, float64) []models.VenueCluster
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(svc PositionService) *PositionHandler {
	return &PositionHandler{service: svc}
}

// PositionsResponse maps each resolved event ID to its display position.
type PositionsResponse struct {
	Positions map[string]models.EventPosition `json:"positions"`
}

// ClusterRequest is the body of POST /clusters. A zero threshold uses the server default.
type ClusterRequest struct {
	Events      []models.ResolvedEvent `json:"events" binding:"required,min=1,max=500,dive"`
	ThresholdKm float64                `json:"threshold_km" binding:"gte=0,lte=50"`
}

// ClusterResponse lists clusters in anchor order.
type ClusterResponse struct {
	Clusters []models.VenueCluster `json:"clusters"`
}

// Positions handles POST /positions requests
//
//	@Summary	Resolve and cluster events into map positions
//	@Param		body	body		BatchRequest	true	"events"
//	@Success	200		{object}	PositionsResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/positions [post]
func (h *PositionHandler) Positions(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return
	}

	positions := h.service.GetOptimalPositions(c.Request.Context(), req.Events)
	c.JSON(http.StatusOK, PositionsResponse{Positions: positions})
}

// Clusters handles POST /clusters requests
//
//	@Summary	Cluster already-resolved events
//	@Param		body	body		ClusterRequest	true	"events with coordinates"
//	@Success	200		{object}	ClusterResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/clusters [post]
func (h *PositionHandler) Clusters(c *gin.Context) {
	var req ClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return
	}

	for _, e := range req.Events {
		if !e.Coordinate.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinate for event '" + e.ID + "'"})
			return
		}
	}

	clusters := h.service.ClusterEvents(req.Events, req.ThresholdKm)
	c.JSON(http.StatusOK, ClusterResponse{Clusters: clusters})
}
