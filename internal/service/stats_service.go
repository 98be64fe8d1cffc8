package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"
)

const defaultHistoryLimit = 50

// StatsService is the history/stats recorder. History entries are appended
// by the engine inside its transition transactions; this service owns the
// read side and the derived aggregates.
type StatsService struct {
	patientRepo *repository.PatientRepository
	historyRepo *repository.HistoryRepository
	statRepo    *repository.StatisticRepository
}

func NewStatsService(
	patientRepo *repository.PatientRepository,
	historyRepo *repository.HistoryRepository,
	statRepo *repository.StatisticRepository,
) *StatsService {
	return &StatsService{
		patientRepo: patientRepo,
		historyRepo: historyRepo,
		statRepo:    statRepo,
	}
}

// History returns queue history newest first. An empty token yields the
// global trail; a non-positive limit falls back to the default of 50.
func (s *StatsService) History(token string, limit int) ([]models.QueueHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.historyRepo.List(token, limit)
}

// WaitingSnapshot aggregates registrations over a trailing window. The wait
// figures are over the stored estimate field, not the actual elapsed wait.
type WaitingSnapshot struct {
	WindowHours         int            `json:"window_hours"`
	TotalPatients       int            `json:"total_patients"`
	AverageWaitTime     float64        `json:"average_wait_time"`
	MaxWaitTime         int            `json:"max_wait_time"`
	MinWaitTime         int            `json:"min_wait_time"`
	EmergencyCases      int            `json:"emergency_cases"`
	RegularCases        int            `json:"regular_cases"`
	FollowUpCases       int            `json:"follow_up_cases"`
	CurrentlyWaiting    int            `json:"currently_waiting"`
	DepartmentBreakdown map[string]int `json:"department_breakdown"`
}

// AverageWaitingSnapshot builds the snapshot for the trailing window. A
// non-positive hours value falls back to 24. The currently-waiting count
// and department breakdown cover the whole queue regardless of window.
func (s *StatsService) AverageWaitingSnapshot(hours int) (*WaitingSnapshot, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	agg, err := s.patientRepo.AggregatesSince(since)
	if err != nil {
		return nil, err
	}

	waiting, err := s.patientRepo.CountWaiting()
	if err != nil {
		return nil, err
	}

	breakdown, err := s.patientRepo.WaitingCountByDepartment()
	if err != nil {
		return nil, err
	}

	return &WaitingSnapshot{
		WindowHours:         hours,
		TotalPatients:       agg.TotalPatients,
		AverageWaitTime:     round1(agg.AvgWaitTime),
		MaxWaitTime:         agg.MaxWaitTime,
		MinWaitTime:         agg.MinWaitTime,
		EmergencyCases:      agg.EmergencyCases,
		RegularCases:        agg.RegularCases,
		FollowUpCases:       agg.FollowUpCases,
		CurrentlyWaiting:    int(waiting),
		DepartmentBreakdown: breakdown,
	}, nil
}

// ComputeDailyStatistics returns the statistic row for the given day,
// computing and caching it on first call. A row, once written, is never
// recomputed: completions that land later the same day will not appear in
// it. That staleness is part of the caching contract.
func (s *StatsService) ComputeDailyStatistics(day time.Time) (*models.DailyStatistic, error) {
	day = day.UTC()
	date := day.Format("2006-01-02")

	existing, err := s.statRepo.GetByDate(date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	patients, err := s.patientRepo.RegisteredBetween(from, to)
	if err != nil {
		return nil, err
	}

	stat := buildDailyStatistic(date, patients)
	if err := s.statRepo.Create(stat); err != nil {
		// A concurrent reader may have filled the cache first; the stored
		// row wins.
		if cached, getErr := s.statRepo.GetByDate(date); getErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("cache daily statistics: %w", err)
	}
	return stat, nil
}

// buildDailyStatistic derives one day's figures from the patients
// registered that day. Wait times and class counts come from completed
// consultations only; the peak hour and department breakdown cover every
// registration.
func buildDailyStatistic(date string, patients []models.Patient) *models.DailyStatistic {
	stat := &models.DailyStatistic{
		Date:                date,
		DepartmentBreakdown: map[string]int{},
	}

	var (
		waits      []float64
		doctors    = map[string]struct{}{}
		hourCounts [24]int
	)

	for _, p := range patients {
		hourCounts[p.RegistrationTime.UTC().Hour()]++
		if p.Department != "" {
			stat.DepartmentBreakdown[p.Department]++
		}

		if p.Status != models.StatusCompleted {
			continue
		}

		stat.TotalPatients++
		switch p.PriorityLevel {
		case models.PriorityEmergency:
			stat.EmergencyCases++
		case models.PriorityRegular:
			stat.RegularCases++
		case models.PriorityFollowUp:
			stat.FollowUpCases++
		}

		if p.ConsultationStartTime != nil {
			waits = append(waits, p.ConsultationStartTime.Sub(p.RegistrationTime).Minutes())
		}
		if p.DoctorAssigned != nil && *p.DoctorAssigned != "" {
			doctors[*p.DoctorAssigned] = struct{}{}
		}
	}

	if len(waits) > 0 {
		sum, maxWait, minWait := 0.0, waits[0], waits[0]
		for _, w := range waits {
			sum += w
			if w > maxWait {
				maxWait = w
			}
			if w < minWait {
				minWait = w
			}
		}
		stat.AvgWaitTime = round1(sum / float64(len(waits)))
		stat.MaxWaitTime = round1(maxWait)
		stat.MinWaitTime = round1(minWait)
	}

	stat.DoctorsAvailable = len(doctors)

	// Peak hour: highest registration count, ties broken by the hour first
	// reached in registration order.
	best := 0
	for _, p := range patients {
		h := p.RegistrationTime.UTC().Hour()
		if hourCounts[h] > best {
			best = hourCounts[h]
			stat.PeakHour = fmt.Sprintf("%02d:00", h)
		}
	}

	return stat
}

// DailyStatistics returns the cached row for a date without computing one.
func (s *StatsService) DailyStatistics(date string) (*models.DailyStatistic, error) {
	return s.statRepo.GetByDate(date)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
