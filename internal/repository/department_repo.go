package repository

import (
	"errors"
	"fmt"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepo(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List retrieves all departments ordered by name
func (r *DepartmentRepository) List() ([]models.Department, error) {
	var departments []models.Department
	err := r.db.Order("name ASC").Find(&departments).Error
	return departments, err
}

// GetByName retrieves a department by its unique name
func (r *DepartmentRepository) GetByName(name string) (*models.Department, error) {
	var department models.Department
	err := r.db.Where("name = ?", name).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return &department, nil
}

// GetByCode retrieves a department by its unique short code
func (r *DepartmentRepository) GetByCode(code string) (*models.Department, error) {
	var department models.Department
	err := r.db.Where("code = ?", code).First(&department).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department code %s: %w", code, ErrNotFound)
		}
		return nil, err
	}
	return &department, nil
}

// UpdateWaitTime sets a department's baseline wait-time figure
func (r *DepartmentRepository) UpdateWaitTime(name string, minutes int) error {
	result := r.db.Model(&models.Department{}).
		Where("name = ?", name).
		Update("current_wait_time", minutes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("department %s: %w", name, ErrNotFound)
	}
	return nil
}
