package database

import (
	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Patient{},
		&models.Department{},
		&models.Doctor{},
		&models.QueueHistory{},
		&models.DailyStatistic{},
	)
}

// Seed inserts the default departments and doctors when their tables are
// empty. Running it against a populated database is a no-op.
func Seed(db *gorm.DB) error {
	var departmentCount int64
	if err := db.Model(&models.Department{}).Count(&departmentCount).Error; err != nil {
		return err
	}

	if departmentCount == 0 {
		departments := []models.Department{
			{Name: "Emergency", Code: "ER", CurrentWaitTime: 15, ActiveDoctors: 3},
			{Name: "General Medicine", Code: "GM", CurrentWaitTime: 45, ActiveDoctors: 2},
			{Name: "Pediatrics", Code: "PED", CurrentWaitTime: 30, ActiveDoctors: 2},
			{Name: "Cardiology", Code: "CARD", CurrentWaitTime: 60, ActiveDoctors: 1},
			{Name: "Orthopedics", Code: "ORTH", CurrentWaitTime: 40, ActiveDoctors: 1},
			{Name: "Dermatology", Code: "DERM", CurrentWaitTime: 25, ActiveDoctors: 1},
		}
		if err := db.Create(&departments).Error; err != nil {
			return err
		}
	}

	var doctorCount int64
	if err := db.Model(&models.Doctor{}).Count(&doctorCount).Error; err != nil {
		return err
	}

	if doctorCount == 0 {
		var departments []models.Department
		if err := db.Order("id ASC").Find(&departments).Error; err != nil {
			return err
		}
		byName := make(map[string]uint, len(departments))
		for _, d := range departments {
			byName[d.Name] = d.ID
		}

		doctors := []models.Doctor{
			{Name: "Dr. Smith", DepartmentID: byName["Emergency"], Specialization: "Emergency Medicine", IsAvailable: true},
			{Name: "Dr. Johnson", DepartmentID: byName["Emergency"], Specialization: "Trauma Specialist", IsAvailable: true},
			{Name: "Dr. Williams", DepartmentID: byName["General Medicine"], Specialization: "General Physician", IsAvailable: true},
			{Name: "Dr. Brown", DepartmentID: byName["Pediatrics"], Specialization: "Pediatrician", IsAvailable: true},
			{Name: "Dr. Davis", DepartmentID: byName["Cardiology"], Specialization: "Cardiologist", IsAvailable: true},
		}
		if err := db.Create(&doctors).Error; err != nil {
			return err
		}
	}

	return nil
}
