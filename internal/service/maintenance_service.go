package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/config"
	"github.com/Sandy5604G/hospital-queue-management/internal/database"
	"github.com/Sandy5604G/hospital-queue-management/internal/models"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetConfirmToken must be passed verbatim to ResetAllData. The human
// confirmation step belongs to the surrounding tool, not the engine.
const ResetConfirmToken = "RESET_ALL_DATA"

// MaintenanceService owns the one-shot batch operations over the store:
// export, backup, retention purge and full reset.
type MaintenanceService struct {
	db          *gorm.DB
	cfg         *config.Config
	patientRepo *repository.PatientRepository
	historyRepo *repository.HistoryRepository
}

func NewMaintenanceService(db *gorm.DB, cfg *config.Config) *MaintenanceService {
	return &MaintenanceService{
		db:          db,
		cfg:         cfg,
		patientRepo: repository.NewPatientRepo(db),
		historyRepo: repository.NewHistoryRepo(db),
	}
}

// ExportSnapshot is the JSON export payload: every patient and history row
// at the moment of export.
type ExportSnapshot struct {
	ExportID     string                `json:"export_id"`
	ExportedAt   time.Time             `json:"exported_at"`
	Patients     []models.Patient      `json:"patients"`
	QueueHistory []models.QueueHistory `json:"queue_history"`
}

// ExportData writes a structured snapshot of all patient and history rows
// to the export directory and returns the written filename. Supported
// formats are "csv" (patients table) and "json" (full snapshot).
func (s *MaintenanceService) ExportData(format string) (string, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case "csv":
		filename := filepath.Join(s.cfg.Data.ExportDir, fmt.Sprintf("hospital_queue_export_%s.csv", timestamp))
		return filename, s.exportCSV(filename)
	case "json":
		filename := filepath.Join(s.cfg.Data.ExportDir, fmt.Sprintf("hospital_queue_export_%s.json", timestamp))
		return filename, s.exportJSON(filename)
	default:
		return "", fmt.Errorf("%w: export format must be csv or json", ErrValidation)
	}
}

func (s *MaintenanceService) exportCSV(filename string) error {
	patients, err := s.patientRepo.All()
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"token_number", "full_name", "age", "gender", "phone_number",
		"emergency_contact", "medical_condition", "priority_level",
		"department", "doctor_assigned", "registration_time",
		"consultation_start_time", "consultation_end_time", "status",
		"estimated_wait_time", "notes",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range patients {
		record := []string{
			p.TokenNumber,
			p.FullName,
			intPtrString(p.Age),
			p.Gender,
			p.PhoneNumber,
			p.EmergencyContact,
			p.MedicalCondition,
			strconv.Itoa(p.PriorityLevel),
			p.Department,
			strPtrString(p.DoctorAssigned),
			p.RegistrationTime.Format(time.RFC3339),
			timePtrString(p.ConsultationStartTime),
			timePtrString(p.ConsultationEndTime),
			p.Status,
			strconv.Itoa(p.EstimatedWaitTime),
			p.Notes,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *MaintenanceService) exportJSON(filename string) error {
	patients, err := s.patientRepo.All()
	if err != nil {
		return err
	}
	history, err := s.historyRepo.All()
	if err != nil {
		return err
	}

	snapshot := ExportSnapshot{
		ExportID:     uuid.New().String(),
		ExportedAt:   time.Now().UTC(),
		Patients:     patients,
		QueueHistory: history,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// BackupDatabase copies the underlying database file to the backup
// directory. Only the sqlite driver has a file to copy; server-based
// drivers report an error.
func (s *MaintenanceService) BackupDatabase() (string, error) {
	if s.cfg.Database.Driver != "sqlite" {
		return "", fmt.Errorf("database backup requires the sqlite driver, got %s", s.cfg.Database.Driver)
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	backup := filepath.Join(s.cfg.Data.BackupDir, fmt.Sprintf("backup_hospital_queue_%s.db", timestamp))

	src, err := os.Open(s.cfg.Database.Path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(backup)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return backup, dst.Sync()
}

// ClearOldRecords deletes completed patients and history entries older than
// the given day threshold and reports the total rows removed.
func (s *MaintenanceService) ClearOldRecords(days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention threshold must be positive", ErrValidation)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		patients := repository.NewPatientRepo(tx)
		history := repository.NewHistoryRepo(tx)

		n, err := patients.DeleteCompletedBefore(cutoff)
		if err != nil {
			return err
		}
		deleted += n

		n, err = history.DeleteBefore(cutoff)
		if err != nil {
			return err
		}
		deleted += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ResetAllData wipes every table and re-seeds the defaults. It refuses to
// run unless the caller passes the exact confirmation token.
func (s *MaintenanceService) ResetAllData(confirm string) error {
	if confirm != ResetConfirmToken {
		return fmt.Errorf("%w: reset requires the confirmation token", ErrValidation)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.QueueHistory{},
			&models.DailyStatistic{},
			&models.Patient{},
			&models.Doctor{},
			&models.Department{},
		} {
			if err := wipe.Delete(model).Error; err != nil {
				return err
			}
		}
		return database.Seed(tx)
	})
}

func intPtrString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func strPtrString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func timePtrString(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
