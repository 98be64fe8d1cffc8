package models

// Department represents the departments table
// The short code feeds token generation; the wait-time figure is a mutable
// baseline added to every estimate for the department.
type Department struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Code            string `gorm:"size:10;uniqueIndex;not null" json:"code"`
	CurrentWaitTime int    `gorm:"default:30" json:"current_wait_time"` // minutes
	ActiveDoctors   int    `gorm:"default:1" json:"active_doctors"`
}

// TableName specifies the table name for Department model
func (Department) TableName() string {
	return "departments"
}
