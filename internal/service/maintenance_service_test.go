package service_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/config"
	"github.com/Sandy5604G/hospital-queue-management/internal/models"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"
	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/internal/testsupport"

	"gorm.io/gorm"
)

func newMaintenanceService(t *testing.T) (*service.MaintenanceService, *service.QueueService, *gorm.DB) {
	t.Helper()

	db := testsupport.OpenDB(t)
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "hospital_queue.db")
	cfg.Data.ExportDir = t.TempDir()
	cfg.Data.BackupDir = t.TempDir()

	patientRepo := repository.NewPatientRepo(db)
	historyRepo := repository.NewHistoryRepo(db)
	statsService := service.NewStatsService(patientRepo, historyRepo, repository.NewStatisticRepo(db))
	queueService := service.NewQueueService(db, patientRepo,
		repository.NewDepartmentRepo(db), repository.NewDoctorRepo(db), historyRepo, statsService)
	return service.NewMaintenanceService(db, cfg), queueService, db
}

func TestExportJSONWritesSnapshot(t *testing.T) {
	ms, qs, _ := newMaintenanceService(t)

	register(t, qs, service.RegisterInput{FullName: "Alice Moore"})
	register(t, qs, service.RegisterInput{FullName: "Bob Reyes", IsEmergency: true})

	filename, err := ms.ExportData("json")
	if err != nil {
		t.Fatalf("ExportData failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var snapshot service.ExportSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if snapshot.ExportID == "" {
		t.Error("export ID is empty")
	}
	if len(snapshot.Patients) != 2 {
		t.Errorf("exported %d patients, want 2", len(snapshot.Patients))
	}
	if len(snapshot.QueueHistory) != 2 {
		t.Errorf("exported %d history entries, want 2", len(snapshot.QueueHistory))
	}
}

func TestExportCSVWritesPatients(t *testing.T) {
	ms, qs, _ := newMaintenanceService(t)

	register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "General Medicine"})

	filename, err := ms.ExportData("csv")
	if err != nil {
		t.Fatalf("ExportData failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "token_number,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Alice Moore") {
		t.Errorf("row = %q, want patient name", lines[1])
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	ms, _, _ := newMaintenanceService(t)

	if _, err := ms.ExportData("xml"); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBackupCopiesDatabaseFile(t *testing.T) {
	// The service copies whatever file the sqlite driver points at.
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "hospital_queue.db")
	cfg.Data.BackupDir = t.TempDir()
	if err := os.WriteFile(cfg.Database.Path, []byte("sqlite payload"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ms := service.NewMaintenanceService(testsupport.OpenDB(t), cfg)
	filename, err := ms.BackupDatabase()
	if err != nil {
		t.Fatalf("BackupDatabase failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "sqlite payload" {
		t.Errorf("backup content = %q", data)
	}
}

func TestBackupRequiresSqliteDriver(t *testing.T) {
	db := testsupport.OpenDB(t)
	cfg := &config.Config{}
	cfg.Database.Driver = "mysql"

	ms := service.NewMaintenanceService(db, cfg)
	if _, err := ms.BackupDatabase(); err == nil {
		t.Fatal("expected an error for a server-based driver")
	}
}

func TestClearOldRecords(t *testing.T) {
	ms, qs, db := newMaintenanceService(t)

	done := register(t, qs, service.RegisterInput{FullName: "Alice Moore"})
	if ok, _ := qs.StartConsultation(done.TokenNumber, "", ""); !ok {
		t.Fatal("StartConsultation failed")
	}
	if ok, _ := qs.CompleteConsultation(done.TokenNumber, ""); !ok {
		t.Fatal("CompleteConsultation failed")
	}
	stillWaiting := register(t, qs, service.RegisterInput{FullName: "Bob Reyes"})

	// Backdate everything past the retention threshold.
	old := time.Now().UTC().AddDate(0, 0, -40)
	if err := db.Model(&models.Patient{}).Where("1 = 1").Update("registration_time", old).Error; err != nil {
		t.Fatalf("backdate patients: %v", err)
	}
	if err := db.Model(&models.QueueHistory{}).Where("1 = 1").Update("action_time", old).Error; err != nil {
		t.Fatalf("backdate history: %v", err)
	}

	deleted, err := ms.ClearOldRecords(30)
	if err != nil {
		t.Fatalf("ClearOldRecords failed: %v", err)
	}
	// One completed patient plus four history entries.
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}

	// Non-completed patients survive regardless of age.
	if _, err := qs.GetPatientByToken(stillWaiting.TokenNumber); err != nil {
		t.Errorf("waiting patient was purged: %v", err)
	}
	if _, err := qs.GetPatientByToken(done.TokenNumber); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("completed patient still present: %v", err)
	}
}

func TestClearOldRecordsValidatesThreshold(t *testing.T) {
	ms, _, _ := newMaintenanceService(t)

	if _, err := ms.ClearOldRecords(0); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	ms, qs, db := newMaintenanceService(t)

	register(t, qs, service.RegisterInput{FullName: "Alice Moore"})

	if err := ms.ResetAllData("yes please"); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var patientCount int64
	if err := db.Model(&models.Patient{}).Count(&patientCount).Error; err != nil {
		t.Fatalf("count patients: %v", err)
	}
	if patientCount != 1 {
		t.Errorf("refused reset still removed data, %d patients left", patientCount)
	}

	if err := ms.ResetAllData(service.ResetConfirmToken); err != nil {
		t.Fatalf("ResetAllData failed: %v", err)
	}
	if err := db.Model(&models.Patient{}).Count(&patientCount).Error; err != nil {
		t.Fatalf("count patients: %v", err)
	}
	if patientCount != 0 {
		t.Errorf("%d patients survived the reset", patientCount)
	}

	// Defaults come back.
	var departmentCount int64
	if err := db.Model(&models.Department{}).Count(&departmentCount).Error; err != nil {
		t.Fatalf("count departments: %v", err)
	}
	if departmentCount != 6 {
		t.Errorf("re-seeded %d departments, want 6", departmentCount)
	}
}
