package repository

import (
	"errors"
	"fmt"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"

	"gorm.io/gorm"
)

type StatisticRepository struct {
	db *gorm.DB
}

func NewStatisticRepo(db *gorm.DB) *StatisticRepository {
	return &StatisticRepository{db: db}
}

// GetByDate retrieves the cached statistic row for a date (YYYY-MM-DD)
func (r *StatisticRepository) GetByDate(date string) (*models.DailyStatistic, error) {
	var stat models.DailyStatistic
	err := r.db.Where("date = ?", date).First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("statistics for %s: %w", date, ErrNotFound)
		}
		return nil, err
	}
	return &stat, nil
}

// Create persists a newly computed statistic row
func (r *StatisticRepository) Create(stat *models.DailyStatistic) error {
	return r.db.Create(stat).Error
}
