package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tracking-service/internal/http/middleware"
	"tracking-service/internal/service"
)

type Handler struct {
	trackingService  *service.TrackingService
	proximityService *service.ProximityService
	fleetService     *service.FleetService
	statsService     *service.StatsService
	log              zerolog.Logger
}

func NewHandler(
	trackingService *service.TrackingService,
	proximityService *service.ProximityService,
	fleetService *service.FleetService,
	statsService *service.StatsService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		trackingService:  trackingService,
		proximityService: proximityService,
		fleetService:     fleetService,
		statsService:     statsService,
		log:              log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	vehicles := protected.Group("/vehicles")
	{
		vehicles.POST("/:id/positions", h.recordPosition)
		vehicles.GET("/:id/positions/latest", h.getLatestPosition)
		vehicles.GET("/:id/positions", h.getPositionHistory)
		vehicles.GET("/:id/stats", h.getVehicleStats)
	}

	trips := protected.Group("/trips")
	{
		trips.GET("/:id/positions", h.getTripPositions)
	}

	positions := protected.Group("/positions")
	{
		positions.GET("/nearby", h.searchNearby)
		positions.DELETE("", h.purgePositions)
	}

	protected.GET("/fleet/positions", h.getFleetSnapshot)
}

func (h *Handler) recordPosition(c *gin.Context) {
	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	var req struct {
		TripID     *string  `json:"trip_id"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		Speed      *float64 `json:"speed"`
		Heading    *float64 `json:"heading"`
		Accuracy   *float64 `json:"accuracy"`
		RecordedAt *string  `json:"recorded_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	var recordedAt *time.Time
	if req.RecordedAt != nil && *req.RecordedAt != "" {
		parsed, err := parseTime(*req.RecordedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid recorded_at"))
			return
		}
		recordedAt = &parsed
	}

	pos, err := h.trackingService.RecordPosition(c.Request.Context(), service.RecordPositionInput{
		VehicleID:  vehicleID,
		TripID:     req.TripID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Speed:      req.Speed,
		Heading:    req.Heading,
		Accuracy:   req.Accuracy,
		RecordedAt: recordedAt,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(pos))
}

func (h *Handler) getLatestPosition(c *gin.Context) {
	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	pos, err := h.trackingService.Latest(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(pos))
}

// History window defaults to the last 24 hours and the limit to 100. The
// limit keeps the earliest samples of the ascending window; callers wanting
// the most recent ones should pass a narrower window.
func (h *Handler) getPositionHistory(c *gin.Context) {
	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	query := service.HistoryQuery{VehicleID: vehicleID}

	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid start"))
			return
		}
		query.Start = &t
	}

	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid end"))
			return
		}
		query.End = &t
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid limit"))
			return
		}
		query.Limit = limit
	}

	positions, err := h.trackingService.History(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(positions))
}

func (h *Handler) getTripPositions(c *gin.Context) {
	tripID := strings.TrimSpace(c.Param("id"))
	if tripID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid trip id"))
		return
	}

	positions, err := h.trackingService.TripPositions(c.Request.Context(), tripID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(positions))
}

func (h *Handler) searchNearby(c *gin.Context) {
	var lat, lng *float64

	if raw := strings.TrimSpace(c.Query("lat")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid lat"))
			return
		}
		lat = &parsed
	}

	if raw := strings.TrimSpace(c.Query("lng")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid lng"))
			return
		}
		lng = &parsed
	}

	// Missing or non-positive radius falls back to the 5 km default.
	var radius float64
	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid radius"))
			return
		}
		radius = parsed
	}

	results, err := h.proximityService.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(results))
}

func (h *Handler) getFleetSnapshot(c *gin.Context) {
	entries, err := h.fleetService.Snapshot(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entries))
}

func (h *Handler) getVehicleStats(c *gin.Context) {
	vehicleID := strings.TrimSpace(c.Param("id"))
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle id"))
		return
	}

	stats, err := h.statsService.VehicleStats(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) purgePositions(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var days int
	if raw := strings.TrimSpace(c.Query("older_than_days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid older_than_days"))
			return
		}
		days = parsed
	}

	deleted, err := h.statsService.PurgeOlderThan(c.Request.Context(), principal, days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": deleted}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStoreUnavailable):
		h.log.Error().Err(err).Msg("store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorResponse("store unavailable"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
