package models

import "time"

// Patient status values. Transitions follow a strict state machine:
// waiting -> in_consultation -> completed, with waiting -> cancelled as the
// only side exit. No transition is reversible.
const (
	StatusWaiting        = "waiting"
	StatusInConsultation = "in_consultation"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

// Priority levels. Lower number means higher urgency.
const (
	PriorityEmergency = 1
	PriorityRegular   = 2
	PriorityFollowUp  = 3
)

// Patient represents the patients table
type Patient struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	TokenNumber           string     `gorm:"size:30;uniqueIndex;not null" json:"token_number"`
	FullName              string     `gorm:"size:100;not null" json:"full_name"`
	Age                   *int       `json:"age"`
	Gender                string     `gorm:"size:10" json:"gender,omitempty"`
	PhoneNumber           string     `gorm:"size:15" json:"phone_number,omitempty"`
	EmergencyContact      string     `gorm:"size:15" json:"emergency_contact,omitempty"`
	MedicalCondition      string     `gorm:"type:text" json:"medical_condition,omitempty"`
	PriorityLevel         int        `gorm:"not null;index" json:"priority_level"`
	Department            string     `gorm:"size:50;index" json:"department,omitempty"`
	DoctorAssigned        *string    `gorm:"size:100" json:"doctor_assigned"`
	RegistrationTime      time.Time  `gorm:"index" json:"registration_time"`
	ConsultationStartTime *time.Time `json:"consultation_start_time"`
	ConsultationEndTime   *time.Time `json:"consultation_end_time"`
	Status                string     `gorm:"size:20;default:'waiting';index" json:"status"`
	EstimatedWaitTime     int        `json:"estimated_wait_time"` // minutes
	Notes                 string     `gorm:"type:text" json:"notes,omitempty"`
	IsEmergency           bool       `gorm:"default:false" json:"is_emergency"`
	IsFollowUp            bool       `gorm:"default:false" json:"is_follow_up"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}

// PriorityText returns the display label for the patient's priority level.
func (p *Patient) PriorityText() string {
	switch p.PriorityLevel {
	case PriorityEmergency:
		return "Emergency"
	case PriorityFollowUp:
		return "Follow-up"
	default:
		return "Regular"
	}
}
