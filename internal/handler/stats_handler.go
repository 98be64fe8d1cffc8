package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetHistory returns the queue history trail, newest first. Filter by
// ?token= and bound with ?limit= (default 50).
func (h *StatsHandler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.statsService.History(c.Query("token"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// GetWaitingSnapshot returns the trailing-window aggregate view.
// ?hours= overrides the default 24h window.
func (h *StatsHandler) GetWaitingSnapshot(c *gin.Context) {
	hours := 0
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid hours")
			return
		}
		hours = parsed
	}

	snapshot, err := h.statsService.AverageWaitingSnapshot(hours)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshot)
}

// GetDailyStatistics returns the statistic row for a date, computing and
// caching it when the date is today and no row exists yet.
func (h *StatsHandler) GetDailyStatistics(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02"))
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	stat, err := h.statsService.ComputeDailyStatistics(day)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stat)
}
