package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "ticketgate/internal/handler/dto/request"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/handler/httperr"
	"ticketgate/internal/handler/middleware"
	"ticketgate/internal/usecase/commands"
	"ticketgate/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckInHandler struct {
	checkInCommands commands.CheckInCommands
	syncCommands    commands.SyncCommands
	checkInQueries  queries.CheckInQueries
	cacheQueries    queries.CacheQueries
}

func NewCheckInHandler(
	checkInCommands commands.CheckInCommands,
	syncCommands commands.SyncCommands,
	checkInQueries queries.CheckInQueries,
	cacheQueries queries.CacheQueries,
) *CheckInHandler {
	return &CheckInHandler{
		checkInCommands: checkInCommands,
		syncCommands:    syncCommands,
		checkInQueries:  checkInQueries,
		cacheQueries:    cacheQueries,
	}
}

// @Summary Check in a ticket
// @Description Verify a presented credential and redeem the ticket exactly once
// @Tags check-ins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CheckInRequest true "Check-in request"
// @Success 200 {object} resdto.CheckInResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /checkins [post]
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	scanner := commands.ScannerIdentity{
		UserID:    userID,
		DeviceID:  middleware.GetDeviceID(c),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	outcome, err := h.checkInCommands.Redeem(c.Request.Context(), req.Token, req.EventID, scanner)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrNonceRegistryDown):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Replay registry unavailable, retry or use offline validation",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	// Rejections are results, not HTTP errors: the scanner needs the reason
	// and, for duplicates, the winning scan.
	c.JSON(http.StatusOK, resdto.FromCheckInOutcome(outcome))
}

// @Summary Sync offline claims
// @Description Upload check-ins granted offline and resolve them against server state
// @Tags check-ins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.SyncClaimsRequest true "Offline claims batch"
// @Success 200 {object} resdto.SyncClaimsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /checkins/sync [post]
func (h *CheckInHandler) SyncClaims(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.SyncClaimsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	scanner := commands.ScannerIdentity{
		UserID:   userID,
		DeviceID: middleware.GetDeviceID(c),
	}

	claims := make([]commands.OfflineClaim, 0, len(req.Claims))
	for _, claim := range req.Claims {
		claims = append(claims, commands.OfflineClaim{
			ClaimID:   claim.ClaimID,
			EventID:   claim.EventID,
			Token:     claim.Token,
			ScannedAt: claim.ScannedAt,
		})
	}

	resolutions, err := h.syncCommands.Resolve(c.Request.Context(), scanner, claims)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrSyncBatchTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Sync batch exceeds maximum size",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromClaimResolutions(resolutions))
}

// @Summary Download event cache snapshot
// @Description Full per-event ticket snapshot for offline validation
// @Tags check-ins
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} queries.CacheSnapshot
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /events/{id}/cache [get]
func (h *CheckInHandler) DownloadCache(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event ID format",
		})
		return
	}

	snapshot, err := h.cacheQueries.DownloadSnapshot(c.Request.Context(), eventID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// @Summary List event check-ins
// @Description Recent check-in audit records for an event
// @Tags check-ins
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param limit query int false "Maximum records to return"
// @Success 200 {array} queries.CheckInView
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /events/{id}/checkins [get]
func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid event ID format",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	views, err := h.checkInQueries.ListByEvent(c.Request.Context(), eventID, limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, views)
}
