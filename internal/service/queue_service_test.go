package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"
	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/internal/testsupport"

	"gorm.io/gorm"
)

func newQueueService(t *testing.T) (*service.QueueService, *gorm.DB) {
	t.Helper()

	db := testsupport.OpenDB(t)
	patientRepo := repository.NewPatientRepo(db)
	historyRepo := repository.NewHistoryRepo(db)
	statsService := service.NewStatsService(patientRepo, historyRepo, repository.NewStatisticRepo(db))
	queueService := service.NewQueueService(db, patientRepo,
		repository.NewDepartmentRepo(db), repository.NewDoctorRepo(db), historyRepo, statsService)
	return queueService, db
}

func register(t *testing.T, qs *service.QueueService, input service.RegisterInput) *models.Patient {
	t.Helper()
	patient, err := qs.RegisterPatient(input)
	if err != nil {
		t.Fatalf("RegisterPatient(%q) failed: %v", input.FullName, err)
	}
	return patient
}

func today() string {
	return time.Now().UTC().Format("20060102")
}

func TestRegisterAssignsTokenAndPriority(t *testing.T) {
	qs, _ := newQueueService(t)

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "General Medicine"})

	wantToken := fmt.Sprintf("GM-%s-001", today())
	if patient.TokenNumber != wantToken {
		t.Errorf("token = %q, want %q", patient.TokenNumber, wantToken)
	}
	if patient.Status != models.StatusWaiting {
		t.Errorf("status = %q, want %q", patient.Status, models.StatusWaiting)
	}
	if patient.PriorityLevel != models.PriorityRegular {
		t.Errorf("priority = %d, want %d", patient.PriorityLevel, models.PriorityRegular)
	}

	emergency := register(t, qs, service.RegisterInput{FullName: "Bob Reyes", IsEmergency: true})
	if emergency.PriorityLevel != models.PriorityEmergency {
		t.Errorf("emergency priority = %d, want %d", emergency.PriorityLevel, models.PriorityEmergency)
	}

	followUp := register(t, qs, service.RegisterInput{FullName: "Carol Singh", IsFollowUp: true})
	if followUp.PriorityLevel != models.PriorityFollowUp {
		t.Errorf("follow-up priority = %d, want %d", followUp.PriorityLevel, models.PriorityFollowUp)
	}

	// Emergency flag wins over follow-up.
	both := register(t, qs, service.RegisterInput{FullName: "Dan Oyelaran", IsEmergency: true, IsFollowUp: true})
	if both.PriorityLevel != models.PriorityEmergency {
		t.Errorf("priority with both flags = %d, want %d", both.PriorityLevel, models.PriorityEmergency)
	}
}

func TestRegisterResolvesDepartmentCode(t *testing.T) {
	qs, _ := newQueueService(t)

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "GM"})
	if patient.Department != "General Medicine" {
		t.Errorf("department = %q, want %q", patient.Department, "General Medicine")
	}
	wantToken := fmt.Sprintf("GM-%s-001", today())
	if patient.TokenNumber != wantToken {
		t.Errorf("token = %q, want %q", patient.TokenNumber, wantToken)
	}

	// Unrecognized labels keep the raw text and fall back to the generic
	// token prefix.
	other := register(t, qs, service.RegisterInput{FullName: "Bob Reyes", Department: "Physio"})
	if other.Department != "Physio" {
		t.Errorf("department = %q, want %q", other.Department, "Physio")
	}
	wantToken = fmt.Sprintf("HOSP-%s-001", today())
	if other.TokenNumber != wantToken {
		t.Errorf("token = %q, want %q", other.TokenNumber, wantToken)
	}
}

func TestRegisterRequiresName(t *testing.T) {
	qs, _ := newQueueService(t)

	if _, err := qs.RegisterPatient(service.RegisterInput{FullName: "   "}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTokenSequenceIncrementsPerPrefix(t *testing.T) {
	qs, _ := newQueueService(t)

	first := register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "General Medicine"})
	second := register(t, qs, service.RegisterInput{FullName: "Bob Reyes", Department: "General Medicine"})
	if first.TokenNumber == second.TokenNumber {
		t.Fatalf("tokens collided: %q", first.TokenNumber)
	}
	if want := fmt.Sprintf("GM-%s-002", today()); second.TokenNumber != want {
		t.Errorf("second token = %q, want %q", second.TokenNumber, want)
	}

	// A different prefix keeps its own sequence.
	generic := register(t, qs, service.RegisterInput{FullName: "Carol Singh"})
	if want := fmt.Sprintf("HOSP-%s-001", today()); generic.TokenNumber != want {
		t.Errorf("generic token = %q, want %q", generic.TokenNumber, want)
	}
}

func TestComputeEstimatedWaitIsPure(t *testing.T) {
	qs, _ := newQueueService(t)

	register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "General Medicine"})
	register(t, qs, service.RegisterInput{FullName: "Bob Reyes", Department: "General Medicine"})

	// Regular base 20 + GM baseline 45 + 2 waiting ahead * 15.
	first, err := qs.ComputeEstimatedWait(models.PriorityRegular, "General Medicine")
	if err != nil {
		t.Fatalf("ComputeEstimatedWait failed: %v", err)
	}
	if first != 95 {
		t.Errorf("estimate = %d, want 95", first)
	}

	second, err := qs.ComputeEstimatedWait(models.PriorityRegular, "General Medicine")
	if err != nil {
		t.Fatalf("ComputeEstimatedWait failed: %v", err)
	}
	if first != second {
		t.Errorf("estimate changed between identical calls: %d then %d", first, second)
	}

	if _, err := qs.ComputeEstimatedWait(7, ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation for out-of-range priority, got %v", err)
	}
}

func TestComputeEstimatedWaitClampedAtCeiling(t *testing.T) {
	qs, _ := newQueueService(t)

	for i := 0; i < 13; i++ {
		register(t, qs, service.RegisterInput{
			FullName:   fmt.Sprintf("Patient %d", i),
			Department: "General Medicine",
		})
	}

	// 20 + 45 + 13*15 = 260, clamped to 240.
	estimate, err := qs.ComputeEstimatedWait(models.PriorityRegular, "General Medicine")
	if err != nil {
		t.Fatalf("ComputeEstimatedWait failed: %v", err)
	}
	if estimate != 240 {
		t.Errorf("estimate = %d, want 240", estimate)
	}
}

func TestEmergencyEntersAtPositionOne(t *testing.T) {
	qs, _ := newQueueService(t)

	regulars := make([]*models.Patient, 0, 3)
	for i := 0; i < 3; i++ {
		regulars = append(regulars, register(t, qs, service.RegisterInput{FullName: fmt.Sprintf("Regular %d", i)}))
	}

	// Nobody outranks a new emergency arrival.
	estimate, err := qs.ComputeEstimatedWait(models.PriorityEmergency, "")
	if err != nil {
		t.Fatalf("ComputeEstimatedWait failed: %v", err)
	}
	if estimate != 0 {
		t.Errorf("emergency estimate = %d, want 0", estimate)
	}

	emergency := register(t, qs, service.RegisterInput{FullName: "Eve Stone", IsEmergency: true})

	pos, err := qs.QueuePosition(emergency.TokenNumber)
	if err != nil {
		t.Fatalf("QueuePosition failed: %v", err)
	}
	if pos != 1 {
		t.Errorf("emergency position = %d, want 1", pos)
	}

	for i, p := range regulars {
		pos, err := qs.QueuePosition(p.TokenNumber)
		if err != nil {
			t.Fatalf("QueuePosition failed: %v", err)
		}
		if pos != i+2 {
			t.Errorf("regular %d position = %d, want %d", i, pos, i+2)
		}
	}
}

func TestQueuePositionsAreUnique(t *testing.T) {
	qs, _ := newQueueService(t)

	tokens := []string{
		register(t, qs, service.RegisterInput{FullName: "R1"}).TokenNumber,
		register(t, qs, service.RegisterInput{FullName: "F1", IsFollowUp: true}).TokenNumber,
		register(t, qs, service.RegisterInput{FullName: "E1", IsEmergency: true}).TokenNumber,
		register(t, qs, service.RegisterInput{FullName: "R2"}).TokenNumber,
		register(t, qs, service.RegisterInput{FullName: "E2", IsEmergency: true}).TokenNumber,
	}

	seen := map[int]string{}
	for _, token := range tokens {
		pos, err := qs.QueuePosition(token)
		if err != nil {
			t.Fatalf("QueuePosition(%s) failed: %v", token, err)
		}
		if pos < 1 || pos > len(tokens) {
			t.Errorf("position %d for %s out of range", pos, token)
		}
		if other, dup := seen[pos]; dup {
			t.Errorf("position %d shared by %s and %s", pos, token, other)
		}
		seen[pos] = token
	}

	// Emergencies first in arrival order, then regulars, then follow-ups.
	entries, err := qs.CurrentQueue("")
	if err != nil {
		t.Fatalf("CurrentQueue failed: %v", err)
	}
	wantOrder := []string{"E1", "E2", "R1", "R2", "F1"}
	for i, entry := range entries {
		if entry.Patient.FullName != wantOrder[i] {
			t.Errorf("queue[%d] = %s, want %s", i, entry.Patient.FullName, wantOrder[i])
		}
		if entry.Position != i+1 {
			t.Errorf("queue[%d] position = %d, want %d", i, entry.Position, i+1)
		}
	}
}

func TestQueuePositionSentinel(t *testing.T) {
	qs, _ := newQueueService(t)

	pos, err := qs.QueuePosition("HOSP-20200101-001")
	if err != nil {
		t.Fatalf("QueuePosition failed: %v", err)
	}
	if pos != -1 {
		t.Errorf("position for unknown token = %d, want -1", pos)
	}

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore"})
	if ok, _ := qs.StartConsultation(patient.TokenNumber, "", ""); !ok {
		t.Fatal("StartConsultation failed")
	}
	pos, err = qs.QueuePosition(patient.TokenNumber)
	if err != nil {
		t.Fatalf("QueuePosition failed: %v", err)
	}
	if pos != -1 {
		t.Errorf("position for in-consultation patient = %d, want -1", pos)
	}
}

func TestStartConsultationOnlyFromWaiting(t *testing.T) {
	qs, _ := newQueueService(t)

	ok, err := qs.StartConsultation("HOSP-20200101-001", "", "")
	if err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}
	if ok {
		t.Error("starting an unknown token succeeded")
	}

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore"})

	ok, err = qs.StartConsultation(patient.TokenNumber, "", "")
	if err != nil || !ok {
		t.Fatalf("StartConsultation = (%v, %v), want (true, nil)", ok, err)
	}

	// Already in consultation.
	ok, err = qs.StartConsultation(patient.TokenNumber, "", "")
	if err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}
	if ok {
		t.Error("starting twice succeeded")
	}

	ok, err = qs.CompleteConsultation(patient.TokenNumber, "")
	if err != nil || !ok {
		t.Fatalf("CompleteConsultation = (%v, %v), want (true, nil)", ok, err)
	}

	// Completed is terminal.
	ok, err = qs.StartConsultation(patient.TokenNumber, "", "")
	if err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}
	if ok {
		t.Error("starting a completed patient succeeded")
	}

	fetched, err := qs.GetPatientByToken(patient.TokenNumber)
	if err != nil {
		t.Fatalf("GetPatientByToken failed: %v", err)
	}
	if fetched.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", fetched.Status, models.StatusCompleted)
	}
}

func TestCompleteConsultationOnlyFromInConsultation(t *testing.T) {
	qs, _ := newQueueService(t)

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore"})

	ok, err := qs.CompleteConsultation(patient.TokenNumber, "")
	if err != nil {
		t.Fatalf("CompleteConsultation failed: %v", err)
	}
	if ok {
		t.Error("completing a waiting patient succeeded")
	}

	fetched, err := qs.GetPatientByToken(patient.TokenNumber)
	if err != nil {
		t.Fatalf("GetPatientByToken failed: %v", err)
	}
	if fetched.Status != models.StatusWaiting || fetched.ConsultationEndTime != nil {
		t.Errorf("failed completion mutated state: status=%q end=%v", fetched.Status, fetched.ConsultationEndTime)
	}
}

func TestCancelPatientRules(t *testing.T) {
	qs, db := newQueueService(t)

	if err := qs.CancelPatient("HOSP-20200101-001", "", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	patient := register(t, qs, service.RegisterInput{FullName: "Alice Moore"})
	if ok, _ := qs.StartConsultation(patient.TokenNumber, "", ""); !ok {
		t.Fatal("StartConsultation failed")
	}
	if err := qs.CancelPatient(patient.TokenNumber, "", ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	waiting := register(t, qs, service.RegisterInput{FullName: "Bob Reyes"})
	if err := qs.CancelPatient(waiting.TokenNumber, "left without notice", "frontdesk"); err != nil {
		t.Fatalf("CancelPatient failed: %v", err)
	}

	// Gone from every queue view.
	if pos, _ := qs.QueuePosition(waiting.TokenNumber); pos != -1 {
		t.Errorf("cancelled patient still has position %d", pos)
	}
	next, err := qs.NextPatient()
	if err != nil {
		t.Fatalf("NextPatient failed: %v", err)
	}
	if next != nil {
		t.Errorf("expected empty waiting queue, got %s", next.TokenNumber)
	}

	// But the trail remains.
	entries, err := repository.NewHistoryRepo(db).List(waiting.TokenNumber, 10)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	var cancelled *models.QueueHistory
	for i := range entries {
		if entries[i].Action == models.ActionCancelled {
			cancelled = &entries[i]
		}
	}
	if cancelled == nil {
		t.Fatal("no CANCELLED history entry recorded")
	}
	if cancelled.Notes != "left without notice" || cancelled.PerformedBy != "frontdesk" {
		t.Errorf("cancel entry = %+v, want reason and actor recorded", cancelled)
	}
}

func TestEndToEndPriorityFlow(t *testing.T) {
	qs, db := newQueueService(t)

	patientA := register(t, qs, service.RegisterInput{FullName: "Alice Moore", Department: "GM"})
	if want := fmt.Sprintf("GM-%s-001", today()); patientA.TokenNumber != want {
		t.Fatalf("patient A token = %q, want %q", patientA.TokenNumber, want)
	}

	patientB := register(t, qs, service.RegisterInput{FullName: "Bob Reyes", IsEmergency: true})
	if want := fmt.Sprintf("HOSP-%s-001", today()); patientB.TokenNumber != want {
		t.Fatalf("patient B token = %q, want %q", patientB.TokenNumber, want)
	}

	if pos, _ := qs.QueuePosition(patientB.TokenNumber); pos != 1 {
		t.Errorf("B position = %d, want 1", pos)
	}
	if pos, _ := qs.QueuePosition(patientA.TokenNumber); pos != 2 {
		t.Errorf("A position = %d, want 2", pos)
	}

	next, err := qs.NextPatient()
	if err != nil {
		t.Fatalf("NextPatient failed: %v", err)
	}
	if next == nil || next.TokenNumber != patientB.TokenNumber {
		t.Fatalf("next patient = %v, want B", next)
	}

	if ok, err := qs.StartConsultation(patientB.TokenNumber, "Dr. Smith", ""); !ok || err != nil {
		t.Fatalf("StartConsultation(B) = (%v, %v)", ok, err)
	}

	doctors := repository.NewDoctorRepo(db)
	smith, err := doctors.GetByName("Dr. Smith")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if smith.IsAvailable || smith.CurrentPatientToken == nil || *smith.CurrentPatientToken != patientB.TokenNumber {
		t.Errorf("doctor binding inconsistent: available=%v token=%v", smith.IsAvailable, smith.CurrentPatientToken)
	}

	current, err := qs.CurrentPatient()
	if err != nil {
		t.Fatalf("CurrentPatient failed: %v", err)
	}
	if current == nil || current.TokenNumber != patientB.TokenNumber {
		t.Fatalf("current patient = %v, want B", current)
	}

	if ok, err := qs.CompleteConsultation(patientB.TokenNumber, ""); !ok || err != nil {
		t.Fatalf("CompleteConsultation(B) = (%v, %v)", ok, err)
	}

	smith, err = doctors.GetByName("Dr. Smith")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if !smith.IsAvailable || smith.CurrentPatientToken != nil {
		t.Errorf("doctor not released: available=%v token=%v", smith.IsAvailable, smith.CurrentPatientToken)
	}

	if pos, _ := qs.QueuePosition(patientA.TokenNumber); pos != 1 {
		t.Errorf("A position after B completes = %d, want 1", pos)
	}
	next, err = qs.NextPatient()
	if err != nil {
		t.Fatalf("NextPatient failed: %v", err)
	}
	if next == nil || next.TokenNumber != patientA.TokenNumber {
		t.Fatalf("next patient = %v, want A", next)
	}
}

func TestGetDepartmentByNameOrCode(t *testing.T) {
	qs, _ := newQueueService(t)

	byName, err := qs.GetDepartment("Cardiology")
	if err != nil {
		t.Fatalf("GetDepartment failed: %v", err)
	}
	byCode, err := qs.GetDepartment("CARD")
	if err != nil {
		t.Fatalf("GetDepartment failed: %v", err)
	}
	if byName.ID != byCode.ID {
		t.Errorf("name and code lookups disagree: %d vs %d", byName.ID, byCode.ID)
	}

	if _, err := qs.GetDepartment("Astrology"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDepartmentWaitTime(t *testing.T) {
	qs, _ := newQueueService(t)

	if err := qs.UpdateDepartmentWaitTime("General Medicine", 10); err != nil {
		t.Fatalf("UpdateDepartmentWaitTime failed: %v", err)
	}

	estimate, err := qs.ComputeEstimatedWait(models.PriorityRegular, "General Medicine")
	if err != nil {
		t.Fatalf("ComputeEstimatedWait failed: %v", err)
	}
	if estimate != 30 { // 20 base + 10 baseline, empty queue
		t.Errorf("estimate = %d, want 30", estimate)
	}

	if err := qs.UpdateDepartmentWaitTime("General Medicine", -5); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation for negative baseline, got %v", err)
	}
	if err := qs.UpdateDepartmentWaitTime("Nope", 10); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown department, got %v", err)
	}
}
