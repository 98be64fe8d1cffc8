package models

// DailyStatistic represents the statistics table
// One row per calendar date, written once on first need and never
// recomputed. Data completed later the same day is deliberately not folded
// back in; staleness is an accepted property of the cache.
type DailyStatistic struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Date                string         `gorm:"size:10;uniqueIndex;not null" json:"date"` // YYYY-MM-DD
	TotalPatients       int            `gorm:"default:0" json:"total_patients"`
	EmergencyCases      int            `gorm:"default:0" json:"emergency_cases"`
	RegularCases        int            `gorm:"default:0" json:"regular_cases"`
	FollowUpCases       int            `gorm:"default:0" json:"follow_up_cases"`
	AvgWaitTime         float64        `gorm:"default:0" json:"avg_wait_time"` // minutes
	MaxWaitTime         float64        `gorm:"default:0" json:"max_wait_time"`
	MinWaitTime         float64        `gorm:"default:0" json:"min_wait_time"`
	DoctorsAvailable    int            `gorm:"default:0" json:"doctors_available"`
	PeakHour            string         `gorm:"size:5" json:"peak_hour,omitempty"` // "HH:00"
	DepartmentBreakdown map[string]int `gorm:"serializer:json" json:"department_breakdown"`
}

// TableName specifies the table name for DailyStatistic model
func (DailyStatistic) TableName() string {
	return "statistics"
}
