package models

// Doctor represents the doctors table
// Invariant: CurrentPatientToken set implies IsAvailable false.
type Doctor struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"size:100;not null;uniqueIndex" json:"name"`
	DepartmentID        uint       `gorm:"index" json:"department_id"`
	Specialization      string     `gorm:"size:100" json:"specialization,omitempty"`
	IsAvailable         bool       `gorm:"default:true" json:"is_available"`
	CurrentPatientToken *string    `gorm:"size:30" json:"current_patient_token"`
	Department          Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName specifies the table name for Doctor model
func (Doctor) TableName() string {
	return "doctors"
}
