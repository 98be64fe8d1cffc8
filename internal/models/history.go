package models

import "time"

// Queue history action tags, one per engine transition.
const (
	ActionRegistered            = "REGISTERED"
	ActionConsultationStarted   = "CONSULTATION_STARTED"
	ActionConsultationCompleted = "CONSULTATION_COMPLETED"
	ActionCancelled             = "CANCELLED"
)

// QueueHistory represents the queue_history table
// Entries are append-only; nothing updates or deletes them except the bulk
// retention purge.
type QueueHistory struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	TokenNumber         string    `gorm:"size:30;not null;index" json:"token_number"`
	Action              string    `gorm:"size:50;not null" json:"action"`
	ActionTime          time.Time `gorm:"index" json:"action_time"`
	PreviousStatus      string    `gorm:"size:20" json:"previous_status,omitempty"`
	NewStatus           string    `gorm:"size:20" json:"new_status"`
	QueuePositionBefore *int      `json:"queue_position_before"`
	QueuePositionAfter  *int      `json:"queue_position_after"`
	PerformedBy         string    `gorm:"size:50;default:'system'" json:"performed_by"`
	Notes               string    `gorm:"type:text" json:"notes,omitempty"`
}

// TableName specifies the table name for QueueHistory model
func (QueueHistory) TableName() string {
	return "queue_history"
}
