package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sandy5604G/hospital-queue-management/internal/models"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"

	"gorm.io/gorm"
)

// Base wait in minutes per priority class, before queue and department
// adjustments.
const (
	baseWaitEmergency = 0
	baseWaitRegular   = 20
	baseWaitFollowUp  = 10

	minutesPerPatientAhead = 15
	maxEstimatedWait       = 240

	fallbackTokenPrefix = "HOSP"
)

// QueueService is the queue engine. It owns patient, doctor and department
// mutation, the ordering policy and wait-time estimation. Mutating
// operations serialize behind a single mutex and apply their multi-statement
// writes inside one transaction, so a transition is either fully visible or
// not at all.
type QueueService struct {
	mu sync.Mutex

	db           *gorm.DB
	patientRepo  *repository.PatientRepository
	deptRepo     *repository.DepartmentRepository
	doctorRepo   *repository.DoctorRepository
	historyRepo  *repository.HistoryRepository
	statsService *StatsService
}

func NewQueueService(
	db *gorm.DB,
	patientRepo *repository.PatientRepository,
	deptRepo *repository.DepartmentRepository,
	doctorRepo *repository.DoctorRepository,
	historyRepo *repository.HistoryRepository,
	statsService *StatsService,
) *QueueService {
	return &QueueService{
		db:           db,
		patientRepo:  patientRepo,
		deptRepo:     deptRepo,
		doctorRepo:   doctorRepo,
		historyRepo:  historyRepo,
		statsService: statsService,
	}
}

// RegisterInput carries the caller-supplied fields for a new registration.
// The priority class is derived from the flags: emergency wins over
// follow-up, everything else is regular.
type RegisterInput struct {
	FullName         string
	Age              *int
	Gender           string
	PhoneNumber      string
	EmergencyContact string
	MedicalCondition string
	Department       string
	Notes            string
	IsEmergency      bool
	IsFollowUp       bool
	PerformedBy      string
}

// QueueEntry pairs a waiting patient with their 1-based rank.
type QueueEntry struct {
	Position int            `json:"position"`
	Patient  models.Patient `json:"patient"`
}

// RegisterPatient validates the input, assigns priority and token, computes
// the initial estimate and inserts the record as waiting, logging a
// REGISTERED history entry in the same transaction.
func (s *QueueService) RegisterPatient(input RegisterInput) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrValidation)
	}

	priority := models.PriorityRegular
	if input.IsEmergency {
		priority = models.PriorityEmergency
	} else if input.IsFollowUp {
		priority = models.PriorityFollowUp
	}

	departmentName, departmentCode, err := s.resolveDepartment(input.Department)
	if err != nil {
		return nil, err
	}

	// The estimate counts the queue as it stands before this insert.
	estimate, err := s.ComputeEstimatedWait(priority, departmentName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	patient := &models.Patient{
		FullName:          strings.TrimSpace(input.FullName),
		Age:               input.Age,
		Gender:            input.Gender,
		PhoneNumber:       input.PhoneNumber,
		EmergencyContact:  input.EmergencyContact,
		MedicalCondition:  input.MedicalCondition,
		PriorityLevel:     priority,
		Department:        departmentName,
		RegistrationTime:  now,
		Status:            models.StatusWaiting,
		EstimatedWaitTime: estimate,
		Notes:             input.Notes,
		IsEmergency:       input.IsEmergency,
		IsFollowUp:        input.IsFollowUp,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		patients := repository.NewPatientRepo(tx)
		history := repository.NewHistoryRepo(tx)

		token, err := generateToken(patients, departmentCode, now)
		if err != nil {
			return err
		}
		patient.TokenNumber = token

		if err := patients.Create(patient); err != nil {
			return err
		}

		ahead, err := patients.CountWaitingBefore(patient.PriorityLevel, patient.RegistrationTime, patient.ID)
		if err != nil {
			return err
		}
		position := int(ahead) + 1

		return history.Append(&models.QueueHistory{
			TokenNumber:        patient.TokenNumber,
			Action:             models.ActionRegistered,
			ActionTime:         now,
			NewStatus:          models.StatusWaiting,
			QueuePositionAfter: &position,
			PerformedBy:        input.PerformedBy,
		})
	})
	if err != nil {
		return nil, err
	}

	return patient, nil
}

// ComputeEstimatedWait returns the estimate in minutes for a hypothetical
// new arrival of the given priority, without mutating state. The figure is
// the class base wait, plus the department baseline when one is given, plus
// a fixed charge per waiting patient of equal or higher urgency, clamped at
// four hours.
func (s *QueueService) ComputeEstimatedWait(priority int, department string) (int, error) {
	var base int
	switch priority {
	case models.PriorityEmergency:
		base = baseWaitEmergency
	case models.PriorityRegular:
		base = baseWaitRegular
	case models.PriorityFollowUp:
		base = baseWaitFollowUp
	default:
		return 0, fmt.Errorf("%w: priority level must be between 1 and 3", ErrValidation)
	}

	if department != "" {
		dept, err := s.deptRepo.GetByName(department)
		if err == nil {
			base += dept.CurrentWaitTime
		} else if !errors.Is(err, repository.ErrNotFound) {
			return 0, err
		}
	}

	ahead, err := s.patientRepo.CountWaitingAtOrAbove(priority, department)
	if err != nil {
		return 0, err
	}

	total := base + int(ahead)*minutesPerPatientAhead
	if total > maxEstimatedWait {
		total = maxEstimatedWait
	}
	return total, nil
}

// QueuePosition returns the patient's 1-based rank among waiting patients,
// ordered by priority then registration time. It returns -1 when the token
// is unknown or the patient is not currently waiting.
func (s *QueueService) QueuePosition(token string) (int, error) {
	patient, err := s.patientRepo.GetByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return -1, nil
		}
		return -1, err
	}
	if patient.Status != models.StatusWaiting {
		return -1, nil
	}

	ahead, err := s.patientRepo.CountWaitingBefore(patient.PriorityLevel, patient.RegistrationTime, patient.ID)
	if err != nil {
		return -1, err
	}
	return int(ahead) + 1, nil
}

// NextPatient returns the waiting patient at rank 1, or nil when the queue
// is empty.
func (s *QueueService) NextPatient() (*models.Patient, error) {
	return s.patientRepo.NextWaiting()
}

// CurrentPatient returns the patient whose consultation started earliest
// among those still in consultation, or nil when there is none.
func (s *QueueService) CurrentPatient() (*models.Patient, error) {
	return s.patientRepo.CurrentInConsultation()
}

// GetPatientByToken retrieves full patient details for a token.
func (s *QueueService) GetPatientByToken(token string) (*models.Patient, error) {
	return s.patientRepo.GetByToken(token)
}

// CurrentQueue returns the waiting patients in service order together with
// their global rank, optionally filtered by department.
func (s *QueueService) CurrentQueue(department string) ([]QueueEntry, error) {
	patients, err := s.patientRepo.WaitingQueue(department)
	if err != nil {
		return nil, err
	}

	entries := make([]QueueEntry, 0, len(patients))
	for _, p := range patients {
		ahead, err := s.patientRepo.CountWaitingBefore(p.PriorityLevel, p.RegistrationTime, p.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, QueueEntry{Position: int(ahead) + 1, Patient: p})
	}
	return entries, nil
}

// StartConsultation moves a waiting patient into consultation, stamping the
// start time and optionally binding a doctor. The outcome is a boolean: an
// unknown token or a patient not in waiting yields false, not an error, so
// repeated speculative calls stay cheap for the caller.
func (s *QueueService) StartConsultation(token, doctorName, performedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		patients := repository.NewPatientRepo(tx)
		history := repository.NewHistoryRepo(tx)
		doctors := repository.NewDoctorRepo(tx)

		patient, err := patients.GetByToken(token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		if patient.Status != models.StatusWaiting {
			return nil
		}

		ahead, err := patients.CountWaitingBefore(patient.PriorityLevel, patient.RegistrationTime, patient.ID)
		if err != nil {
			return err
		}
		positionBefore := int(ahead) + 1

		now := time.Now().UTC()
		fields := map[string]interface{}{"consultation_start_time": now}
		if doctorName != "" {
			fields["doctor_assigned"] = doctorName
		}

		ok, err := patients.UpdateStatus(token, models.StatusWaiting, models.StatusInConsultation, fields)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := history.Append(&models.QueueHistory{
			TokenNumber:         token,
			Action:              models.ActionConsultationStarted,
			ActionTime:          now,
			PreviousStatus:      models.StatusWaiting,
			NewStatus:           models.StatusInConsultation,
			QueuePositionBefore: &positionBefore,
			PerformedBy:         performedBy,
		}); err != nil {
			return err
		}

		if doctorName != "" {
			if err := doctors.Assign(doctorName, token); err != nil {
				return err
			}
		}

		started = true
		return nil
	})
	return started, err
}

// CompleteConsultation finishes a consultation, stamping the end time and
// freeing the bound doctor. Completing also triggers the lazy daily
// statistics computation for the current date.
func (s *QueueService) CompleteConsultation(token, performedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		patients := repository.NewPatientRepo(tx)
		history := repository.NewHistoryRepo(tx)
		doctors := repository.NewDoctorRepo(tx)

		patient, err := patients.GetByToken(token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		if patient.Status != models.StatusInConsultation {
			return nil
		}

		now := time.Now().UTC()
		ok, err := patients.UpdateStatus(token, models.StatusInConsultation, models.StatusCompleted,
			map[string]interface{}{"consultation_end_time": now})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := history.Append(&models.QueueHistory{
			TokenNumber:    token,
			Action:         models.ActionConsultationCompleted,
			ActionTime:     now,
			PreviousStatus: models.StatusInConsultation,
			NewStatus:      models.StatusCompleted,
			PerformedBy:    performedBy,
		}); err != nil {
			return err
		}

		if patient.DoctorAssigned != nil && *patient.DoctorAssigned != "" {
			if err := doctors.Release(*patient.DoctorAssigned); err != nil {
				return err
			}
		}

		completed = true
		return nil
	})
	if err != nil || !completed {
		return completed, err
	}

	// Lazy cache fill; failure here must not undo the committed transition.
	if _, err := s.statsService.ComputeDailyStatistics(time.Now().UTC()); err != nil {
		log.Printf("Warning: failed to update daily statistics: %v", err)
	}

	return true, nil
}

// CancelPatient cancels a waiting registration. Cancellation from any other
// status is an invalid transition, and an unknown token is not found.
func (s *QueueService) CancelPatient(token, reason, performedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		patients := repository.NewPatientRepo(tx)
		history := repository.NewHistoryRepo(tx)

		patient, err := patients.GetByToken(token)
		if err != nil {
			return err
		}
		if patient.Status != models.StatusWaiting {
			return fmt.Errorf("%w: cannot cancel patient in status %s", ErrInvalidTransition, patient.Status)
		}

		ahead, err := patients.CountWaitingBefore(patient.PriorityLevel, patient.RegistrationTime, patient.ID)
		if err != nil {
			return err
		}
		positionBefore := int(ahead) + 1

		now := time.Now().UTC()
		ok, err := patients.UpdateStatus(token, models.StatusWaiting, models.StatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: patient %s is no longer waiting", ErrInvalidTransition, token)
		}

		return history.Append(&models.QueueHistory{
			TokenNumber:         token,
			Action:              models.ActionCancelled,
			ActionTime:          now,
			PreviousStatus:      models.StatusWaiting,
			NewStatus:           models.StatusCancelled,
			QueuePositionBefore: &positionBefore,
			PerformedBy:         performedBy,
			Notes:               reason,
		})
	})
}

// ListDepartments returns all departments.
func (s *QueueService) ListDepartments() ([]models.Department, error) {
	return s.deptRepo.List()
}

// GetDepartment retrieves one department by name or short code.
func (s *QueueService) GetDepartment(label string) (*models.Department, error) {
	dept, err := s.deptRepo.GetByName(label)
	if errors.Is(err, repository.ErrNotFound) {
		return s.deptRepo.GetByCode(label)
	}
	return dept, err
}

// UpdateDepartmentWaitTime sets a department's baseline wait figure.
func (s *QueueService) UpdateDepartmentWaitTime(name string, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: wait time cannot be negative", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deptRepo.UpdateWaitTime(name, minutes)
}

// AvailableDoctors lists available doctors, optionally for one department.
func (s *QueueService) AvailableDoctors(department string) ([]models.Doctor, error) {
	return s.doctorRepo.Available(department)
}

// resolveDepartment maps a caller-supplied department label to the seeded
// department's canonical name and code. The label may be either the name or
// the short code; an unrecognized label is kept as-is and tokens fall back
// to the generic prefix.
func (s *QueueService) resolveDepartment(label string) (name, code string, err error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", "", nil
	}

	dept, err := s.deptRepo.GetByName(label)
	if errors.Is(err, repository.ErrNotFound) {
		dept, err = s.deptRepo.GetByCode(label)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return label, "", nil
		}
		return "", "", err
	}
	return dept.Name, dept.Code, nil
}

// generateToken builds the next token for the day and prefix by scanning
// the highest existing suffix and incrementing it. Format:
// {code|HOSP}-{YYYYMMDD}-{NNN}. This read-then-write is why registrations
// serialize behind the engine mutex.
func generateToken(patients *repository.PatientRepository, departmentCode string, now time.Time) (string, error) {
	prefix := fallbackTokenPrefix
	if departmentCode != "" {
		prefix = departmentCode
	}
	prefix = fmt.Sprintf("%s-%s-", prefix, now.Format("20060102"))

	last, err := patients.LastTokenForPrefix(prefix)
	if err != nil {
		return "", err
	}

	next := 1
	if last != "" {
		idx := strings.LastIndex(last, "-")
		seq, err := strconv.Atoi(last[idx+1:])
		if err != nil {
			return "", fmt.Errorf("malformed token %q: %w", last, err)
		}
		next = seq + 1
	}

	return fmt.Sprintf("%s%03d", prefix, next), nil
}
