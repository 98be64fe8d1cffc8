package handler

import (
	"net/http"

	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	maintenanceService *service.MaintenanceService
}

func NewAdminHandler(maintenanceService *service.MaintenanceService) *AdminHandler {
	return &AdminHandler{
		maintenanceService: maintenanceService,
	}
}

// ExportRequest represents the request body for a data export
type ExportRequest struct {
	Format string `json:"format" binding:"required,oneof=csv json"`
}

// Export writes a snapshot of all patient and history rows to a file
func (h *AdminHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Format must be 'csv' or 'json'")
		return
	}

	filename, err := h.maintenanceService.ExportData(req.Format)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{"file": filename})
}

// Backup copies the underlying sqlite database file
func (h *AdminHandler) Backup(c *gin.Context) {
	filename, err := h.maintenanceService.BackupDatabase()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{"file": filename})
}

// PurgeRequest represents the request body for the retention purge
type PurgeRequest struct {
	Days int `json:"days" binding:"required,gt=0"`
}

// Purge deletes completed patients and history older than the threshold
func (h *AdminHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Days must be a positive integer")
		return
	}

	deleted, err := h.maintenanceService.ClearOldRecords(req.Days)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{"deleted": deleted})
}

// ResetRequest represents the request body for the full data reset
type ResetRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// Reset wipes all data and re-seeds the defaults. The caller owns the human
// confirmation step and must pass the exact confirmation token.
func (h *AdminHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Confirmation token is required")
		return
	}

	if err := h.maintenanceService.ResetAllData(req.Confirm); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "All data cleared and defaults re-seeded")
}
