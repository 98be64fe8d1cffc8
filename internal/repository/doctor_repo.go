package repository

import (
	"errors"
	"fmt"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepo(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// GetByName retrieves a doctor by name
func (r *DoctorRepository) GetByName(name string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.Where("name = ?", name).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("doctor %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return &doctor, nil
}

// Available retrieves available doctors, optionally filtered by department
// name, with their department preloaded.
func (r *DoctorRepository) Available(department string) ([]models.Doctor, error) {
	query := r.db.Preload("Department").Where("doctors.is_available = ?", true)
	if department != "" {
		query = query.
			Joins("JOIN departments ON departments.id = doctors.department_id").
			Where("departments.name = ?", department)
	}

	var doctors []models.Doctor
	err := query.Order("doctors.name ASC").Find(&doctors).Error
	return doctors, err
}

// Assign binds a doctor to a patient token and marks them unavailable.
// Unknown doctor names are a silent no-op, matching the engine's tolerant
// binding contract.
func (r *DoctorRepository) Assign(name, token string) error {
	return r.db.Model(&models.Doctor{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"current_patient_token": token,
			"is_available":          false,
		}).Error
}

// Release clears a doctor's patient binding and marks them available again.
func (r *DoctorRepository) Release(name string) error {
	return r.db.Model(&models.Doctor{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"current_patient_token": nil,
			"is_available":          true,
		}).Error
}
