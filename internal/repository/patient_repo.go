package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create inserts a new patient record
func (r *PatientRepository) Create(patient *models.Patient) error {
	return r.db.Create(patient).Error
}

// GetByToken retrieves a patient by token number
func (r *PatientRepository) GetByToken(token string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("token_number = ?", token).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("patient %s: %w", token, ErrNotFound)
		}
		return nil, err
	}
	return &patient, nil
}

// LastTokenForPrefix returns the highest existing token number with the
// given prefix, or "" when none exists. Tokens share a fixed-width numeric
// suffix, so the lexicographic maximum is also the numeric maximum.
func (r *PatientRepository) LastTokenForPrefix(prefix string) (string, error) {
	var patient models.Patient
	err := r.db.Where("token_number LIKE ?", prefix+"%").
		Order("token_number DESC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return patient.TokenNumber, nil
}

// UpdateStatus performs a conditional status transition. The update applies
// only when the patient is still in expectedStatus; the boolean reports
// whether a row changed.
func (r *PatientRepository) UpdateStatus(token, expectedStatus, newStatus string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": newStatus}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.Model(&models.Patient{}).
		Where("token_number = ? AND status = ?", token, expectedStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountWaitingBefore counts the waiting patients served ahead of the record
// identified by (priority, registered, id). Ties on registration time break
// on insert order so that no two waiting patients share a rank.
func (r *PatientRepository) CountWaitingBefore(priority int, registered time.Time, id uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Patient{}).
		Where("status = ?", models.StatusWaiting).
		Where("priority_level < ? OR (priority_level = ? AND (registration_time < ? OR (registration_time = ? AND id < ?)))",
			priority, priority, registered, registered, id).
		Count(&count).Error
	return count, err
}

// CountWaitingAtOrAbove counts the waiting patients of equal or higher
// urgency than the given priority, optionally scoped to one department.
// Used for wait-time estimation of a hypothetical new arrival.
func (r *PatientRepository) CountWaitingAtOrAbove(priority int, department string) (int64, error) {
	query := r.db.Model(&models.Patient{}).
		Where("status = ? AND priority_level <= ?", models.StatusWaiting, priority)
	if department != "" {
		query = query.Where("department = ?", department)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// NextWaiting returns the waiting patient at rank 1, or nil when the
// waiting set is empty.
func (r *PatientRepository) NextWaiting() (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("status = ?", models.StatusWaiting).
		Order("priority_level ASC, registration_time ASC, id ASC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

// WaitingQueue returns the waiting patients in service order, optionally
// filtered by department.
func (r *PatientRepository) WaitingQueue(department string) ([]models.Patient, error) {
	query := r.db.Where("status = ?", models.StatusWaiting)
	if department != "" {
		query = query.Where("department = ?", department)
	}

	var patients []models.Patient
	err := query.Order("priority_level ASC, registration_time ASC, id ASC").Find(&patients).Error
	return patients, err
}

// CurrentInConsultation returns the patient whose consultation started
// earliest among those still in consultation, or nil when there is none.
func (r *PatientRepository) CurrentInConsultation() (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("status = ?", models.StatusInConsultation).
		Order("consultation_start_time ASC").
		First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

// CountWaiting returns the total number of currently waiting patients.
func (r *PatientRepository) CountWaiting() (int64, error) {
	var count int64
	err := r.db.Model(&models.Patient{}).
		Where("status = ?", models.StatusWaiting).
		Count(&count).Error
	return count, err
}

// WaitingCountByDepartment returns the waiting count grouped by department.
func (r *PatientRepository) WaitingCountByDepartment() (map[string]int, error) {
	type row struct {
		Department string
		Count      int
	}
	var rows []row
	err := r.db.Model(&models.Patient{}).
		Select("department, COUNT(*) as count").
		Where("status = ?", models.StatusWaiting).
		Group("department").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]int, len(rows))
	for _, r := range rows {
		breakdown[r.Department] = r.Count
	}
	return breakdown, nil
}

// WindowAggregates holds the aggregate figures for patients registered
// inside a time window with status waiting or completed. Wait figures are
// over the stored estimate, not the actual elapsed wait.
type WindowAggregates struct {
	TotalPatients  int
	AvgWaitTime    float64
	MaxWaitTime    int
	MinWaitTime    int
	EmergencyCases int
	RegularCases   int
	FollowUpCases  int
}

// AggregatesSince computes the window aggregates for registrations at or
// after the given time.
func (r *PatientRepository) AggregatesSince(since time.Time) (*WindowAggregates, error) {
	var agg WindowAggregates
	err := r.db.Model(&models.Patient{}).
		Select(`COUNT(*) as total_patients,
			COALESCE(AVG(estimated_wait_time), 0) as avg_wait_time,
			COALESCE(MAX(estimated_wait_time), 0) as max_wait_time,
			COALESCE(MIN(estimated_wait_time), 0) as min_wait_time,
			COALESCE(SUM(CASE WHEN priority_level = 1 THEN 1 ELSE 0 END), 0) as emergency_cases,
			COALESCE(SUM(CASE WHEN priority_level = 2 THEN 1 ELSE 0 END), 0) as regular_cases,
			COALESCE(SUM(CASE WHEN priority_level = 3 THEN 1 ELSE 0 END), 0) as follow_up_cases`).
		Where("registration_time >= ? AND status IN ?", since, []string{models.StatusWaiting, models.StatusCompleted}).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// RegisteredBetween returns every patient registered inside [from, to).
func (r *PatientRepository) RegisteredBetween(from, to time.Time) ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.Where("registration_time >= ? AND registration_time < ?", from, to).
		Order("registration_time ASC").
		Find(&patients).Error
	return patients, err
}

// All returns every patient record, oldest registration first.
func (r *PatientRepository) All() ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.Order("registration_time ASC, id ASC").Find(&patients).Error
	return patients, err
}

// DeleteCompletedBefore removes completed patients registered before the
// cutoff and reports how many rows were deleted.
func (r *PatientRepository) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("registration_time < ? AND status = ?", cutoff, models.StatusCompleted).
		Delete(&models.Patient{})
	return result.RowsAffected, result.Error
}
