package repository

import (
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append adds an immutable history entry for a queue transition
func (r *HistoryRepository) Append(entry *models.QueueHistory) error {
	if entry.ActionTime.IsZero() {
		entry.ActionTime = time.Now().UTC()
	}
	if entry.PerformedBy == "" {
		entry.PerformedBy = "system"
	}
	return r.db.Create(entry).Error
}

// List retrieves history entries newest first, bounded by limit. An empty
// token returns the global trail.
func (r *HistoryRepository) List(token string, limit int) ([]models.QueueHistory, error) {
	query := r.db.Order("action_time DESC, id DESC").Limit(limit)
	if token != "" {
		query = query.Where("token_number = ?", token)
	}

	var entries []models.QueueHistory
	err := query.Find(&entries).Error
	return entries, err
}

// All returns the full history trail, oldest first. Used by exports.
func (r *HistoryRepository) All() ([]models.QueueHistory, error) {
	var entries []models.QueueHistory
	err := r.db.Order("action_time ASC, id ASC").Find(&entries).Error
	return entries, err
}

// DeleteBefore removes history entries older than the cutoff and reports
// how many rows were deleted.
func (r *HistoryRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("action_time < ?", cutoff).Delete(&models.QueueHistory{})
	return result.RowsAffected, result.Error
}
