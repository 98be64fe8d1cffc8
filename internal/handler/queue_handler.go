package handler

import (
	"net/http"
	"strconv"

	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/pkg/utils"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	queueService *service.QueueService
}

func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

// RegisterPatientRequest represents the request body for patient registration
type RegisterPatientRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Age              *int   `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender           string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	PhoneNumber      string `json:"phone_number"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalCondition string `json:"medical_condition"`
	Department       string `json:"department"`
	Notes            string `json:"notes"`
	IsEmergency      bool   `json:"is_emergency"`
	IsFollowUp       bool   `json:"is_follow_up"`
	PerformedBy      string `json:"performed_by"`
}

// Register creates a new patient registration and returns the queue ticket
func (h *QueueHandler) Register(c *gin.Context) {
	var req RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	patient, err := h.queueService.RegisterPatient(service.RegisterInput{
		FullName:         req.FullName,
		Age:              req.Age,
		Gender:           req.Gender,
		PhoneNumber:      req.PhoneNumber,
		EmergencyContact: req.EmergencyContact,
		MedicalCondition: req.MedicalCondition,
		Department:       req.Department,
		Notes:            req.Notes,
		IsEmergency:      req.IsEmergency,
		IsFollowUp:       req.IsFollowUp,
		PerformedBy:      req.PerformedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, patient)
}

// GetPatient returns full patient details for a token
func (h *QueueHandler) GetPatient(c *gin.Context) {
	patient, err := h.queueService.GetPatientByToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, patient)
}

// GetQueue returns the current waiting queue with positions
func (h *QueueHandler) GetQueue(c *gin.Context) {
	entries, err := h.queueService.CurrentQueue(c.Query("department"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"queue": entries,
		"count": len(entries),
	})
}

// NextPatient returns the waiting patient at rank 1
func (h *QueueHandler) NextPatient(c *gin.Context) {
	patient, err := h.queueService.NextPatient()
	if err != nil {
		respondError(c, err)
		return
	}
	if patient == nil {
		utils.SuccessResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, patient)
}

// CurrentPatient returns the patient currently in consultation
func (h *QueueHandler) CurrentPatient(c *gin.Context) {
	patient, err := h.queueService.CurrentPatient()
	if err != nil {
		respondError(c, err)
		return
	}
	if patient == nil {
		utils.SuccessResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, patient)
}

// QueuePosition returns a patient's 1-based rank, or -1 when not waiting
func (h *QueueHandler) QueuePosition(c *gin.Context) {
	token := c.Param("token")
	position, err := h.queueService.QueuePosition(token)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"token":    token,
		"position": position,
	})
}

// EstimateWait computes the estimate for a hypothetical priority/department
// pair without touching state
func (h *QueueHandler) EstimateWait(c *gin.Context) {
	priority, err := strconv.Atoi(c.DefaultQuery("priority", "2"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid priority. Must be 1 (emergency), 2 (regular) or 3 (follow-up)")
		return
	}

	department := c.Query("department")
	estimate, err := h.queueService.ComputeEstimatedWait(priority, department)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"priority_level":         priority,
		"department":             department,
		"estimated_wait_minutes": estimate,
	})
}

// ConsultationRequest represents the request body for consultation transitions
type ConsultationRequest struct {
	Token       string `json:"token" binding:"required"`
	Doctor      string `json:"doctor"`
	PerformedBy string `json:"performed_by"`
}

// StartConsultation moves a waiting patient into consultation
func (h *QueueHandler) StartConsultation(c *gin.Context) {
	var req ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: token is required")
		return
	}

	started, err := h.queueService.StartConsultation(req.Token, req.Doctor, req.PerformedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	if !started {
		utils.ErrorResponse(c, http.StatusConflict, "Patient does not exist or is not waiting")
		return
	}

	utils.MessageResponse(c, "Consultation started for token "+req.Token)
}

// CompleteConsultation finishes a consultation
func (h *QueueHandler) CompleteConsultation(c *gin.Context) {
	var req ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: token is required")
		return
	}

	completed, err := h.queueService.CompleteConsultation(req.Token, req.PerformedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	if !completed {
		utils.ErrorResponse(c, http.StatusConflict, "Patient does not exist or is not in consultation")
		return
	}

	utils.MessageResponse(c, "Consultation completed for token "+req.Token)
}

// CancelRequest represents the request body for a cancellation
type CancelRequest struct {
	Token       string `json:"token" binding:"required"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"performed_by"`
}

// CancelPatient cancels a waiting registration
func (h *QueueHandler) CancelPatient(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: token is required")
		return
	}

	if err := h.queueService.CancelPatient(req.Token, req.Reason, req.PerformedBy); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Registration cancelled for token "+req.Token)
}

// GetDepartments lists all departments
func (h *QueueHandler) GetDepartments(c *gin.Context) {
	departments, err := h.queueService.ListDepartments()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, departments)
}

// GetDepartment returns one department by name or short code
func (h *QueueHandler) GetDepartment(c *gin.Context) {
	department, err := h.queueService.GetDepartment(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, department)
}

// UpdateWaitTimeRequest represents the request body for a baseline update
type UpdateWaitTimeRequest struct {
	WaitTime *int `json:"wait_time" binding:"required,gte=0"`
}

// UpdateDepartmentWaitTime sets a department's baseline wait figure
func (h *QueueHandler) UpdateDepartmentWaitTime(c *gin.Context) {
	var req UpdateWaitTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request: wait_time must be a non-negative integer")
		return
	}

	if err := h.queueService.UpdateDepartmentWaitTime(c.Param("name"), *req.WaitTime); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Department wait time updated")
}

// GetAvailableDoctors lists available doctors, optionally per department
func (h *QueueHandler) GetAvailableDoctors(c *gin.Context) {
	doctors, err := h.queueService.AvailableDoctors(c.Query("department"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}
