package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/repository"
)

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	nextID       int64
	appointments map[int64]*domain.Appointment
	slots        map[string]int64 // doctor|date|time -> appointment id
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[int64]*domain.Appointment),
		slots:        make(map[string]int64),
	}
}

func slotKey(doctorID int64, date, timeStr string) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, date, timeStr)
}

func (r *fakeAppointmentRepo) CreateWithSlot(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO, fee float64) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(dto.DoctorID, dto.Date, dto.Time)
	if _, busy := r.slots[key]; busy {
		return nil, domain.ErrSlotAlreadyBooked
	}

	r.nextID++
	appointment := &domain.Appointment{
		ID:               r.nextID,
		PatientID:        patientID,
		DoctorID:         dto.DoctorID,
		Date:             dto.Date,
		Time:             dto.Time,
		Status:           domain.AppointmentStatusPending,
		ConsultationType: dto.ConsultationType,
		ConsultationFee:  fee,
		Symptoms:         dto.Symptoms,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	r.appointments[appointment.ID] = appointment
	r.slots[key] = appointment.ID

	copied := *appointment
	return &copied, nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	copied := *appointment
	return &copied, nil
}

func (r *fakeAppointmentRepo) CancelWithSlot(ctx context.Context, id int64, cancelledBy int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	now := time.Now()
	appointment.Status = domain.AppointmentStatusCancelled
	appointment.CancelledBy = &cancelledBy
	appointment.CancelledAt = &now
	appointment.CancellationReason = &reason

	delete(r.slots, slotKey(appointment.DoctorID, appointment.Date, appointment.Time))
	return nil
}

func (r *fakeAppointmentRepo) RescheduleWithSlot(ctx context.Context, id int64, newDate, newTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	newKey := slotKey(appointment.DoctorID, newDate, newTime)
	if holder, busy := r.slots[newKey]; busy && holder != id {
		return domain.ErrSlotAlreadyBooked
	}

	delete(r.slots, slotKey(appointment.DoctorID, appointment.Date, appointment.Time))
	r.slots[newKey] = id
	appointment.Date = newDate
	appointment.Time = newTime
	return nil
}

func (r *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	appointment.Status = status
	return nil
}

func (r *fakeAppointmentRepo) AppendNotes(ctx context.Context, id int64, role domain.UserRole, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	if role == domain.UserRoleDoctor {
		appointment.DoctorNotes = appendNote(appointment.DoctorNotes, notes)
	} else {
		appointment.PatientNotes = appendNote(appointment.PatientNotes, notes)
	}
	return nil
}

func appendNote(existing, notes string) string {
	if existing == "" {
		return notes
	}
	return existing + "\n" + notes
}

func (r *fakeAppointmentRepo) SetPrescriptionURL(ctx context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	appointment.PrescriptionURL = url
	return nil
}

func (r *fakeAppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Appointment, 0)
	for _, appointment := range r.appointments {
		if r.matches(appointment, filter) {
			result = append(result, *appointment)
		}
	}
	return result, nil
}

func (r *fakeAppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, appointment := range r.appointments {
		if r.matches(appointment, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAppointmentRepo) matches(appointment *domain.Appointment, filter domain.AppointmentFilter) bool {
	if filter.PatientID != nil && appointment.PatientID != *filter.PatientID {
		return false
	}
	if filter.DoctorID != nil && appointment.DoctorID != *filter.DoctorID {
		return false
	}
	if filter.Status != nil && appointment.Status != *filter.Status {
		return false
	}
	if filter.ExcludeStatus != nil && appointment.Status == *filter.ExcludeStatus {
		return false
	}
	return true
}

func (r *fakeAppointmentRepo) GetBookedSlotIndex(ctx context.Context, doctorID int64, fromDate string) (domain.BookedSlotIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := domain.BookedSlotIndex{}
	for key := range r.slots {
		parts := strings.SplitN(key, "|", 3)
		if parts[0] != fmt.Sprintf("%d", doctorID) || parts[1] < fromDate {
			continue
		}
		index[parts[1]] = append(index[parts[1]], parts[2])
	}
	return index, nil
}

func (r *fakeAppointmentRepo) HasActiveBooking(ctx context.Context, patientID, doctorID int64, date string, excludeID *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, appointment := range r.appointments {
		if excludeID != nil && appointment.ID == *excludeID {
			continue
		}
		if appointment.PatientID != patientID || appointment.DoctorID != doctorID || appointment.Date != date {
			continue
		}
		if appointment.Status == domain.AppointmentStatusPending || appointment.Status == domain.AppointmentStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

type fakeDoctorRepo struct {
	doctors map[int64]*domain.Doctor
}

func (r *fakeDoctorRepo) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	return 0, nil
}

func (r *fakeDoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, domain.ErrDoctorNotFound
	}
	copied := *doctor
	return &copied, nil
}

func (r *fakeDoctorRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	for _, doctor := range r.doctors {
		if doctor.UserID == userID {
			copied := *doctor
			return &copied, nil
		}
	}
	return nil, domain.ErrDoctorNotFound
}

func (r *fakeDoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	return nil
}

func (r *fakeDoctorRepo) SetApproved(ctx context.Context, id int64, approved bool) error {
	return nil
}

func (r *fakeDoctorRepo) UpdateWorkingHours(ctx context.Context, id int64, hours domain.WorkingHours) error {
	return nil
}

func (r *fakeDoctorRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	return nil
}

func (r *fakeDoctorRepo) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error) {
	return nil, 0, nil
}

func (r *fakeDoctorRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

// keyedLocker сериализует критические секции по врачу так же, как
// распределенная блокировка, но внутри процесса.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *keyedLocker) WithDoctorLock(ctx context.Context, doctorID int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[doctorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}

type noopNotifier struct{}

func (noopNotifier) AppointmentBooked(domain.Appointment)      {}
func (noopNotifier) AppointmentCancelled(domain.Appointment)   {}
func (noopNotifier) AppointmentRescheduled(domain.Appointment) {}

type fakeFileStorage struct{}

func (fakeFileStorage) UploadFile(ctx context.Context, data []byte, filename string) (string, error) {
	return "https://files.test/" + filename, nil
}

func (fakeFileStorage) DeleteFile(ctx context.Context, fileURL string) error { return nil }

func (fakeFileStorage) GetFile(ctx context.Context, fileURL string) ([]byte, error) {
	return nil, nil
}

func (fakeFileStorage) GetPresignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error) {
	return fileURL, nil
}

const (
	testDoctorID     = int64(1)
	testDoctorUserID = int64(100)
	testPatientID    = int64(200)
)

// testDate — дата через неделю, ее день недели единственный рабочий.
func testFixture(t *testing.T) (*AppointmentServiceImpl, *fakeAppointmentRepo, string) {
	t.Helper()

	day := time.Now().AddDate(0, 0, 7)
	date := day.Format(domain.DateLayout)
	weekday := strings.ToLower(day.Weekday().String())

	doctors := &fakeDoctorRepo{
		doctors: map[int64]*domain.Doctor{
			testDoctorID: {
				ID:              testDoctorID,
				UserID:          testDoctorUserID,
				IsApproved:      true,
				IsAvailable:     true,
				SlotMinutes:     30,
				ConsultationFee: 1500,
				WorkingHours: domain.WorkingHours{
					weekday: {{Start: "09:00", End: "12:00"}},
				},
			},
		},
	}

	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(repo, doctors, newKeyedLocker(), noopNotifier{}, fakeFileStorage{}, zap.NewNop())

	return svc, repo, date
}

var _ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)
var _ repository.DoctorRepository = (*fakeDoctorRepo)(nil)

func createDTO(date, timeStr string) domain.CreateAppointmentDTO {
	return domain.CreateAppointmentDTO{
		DoctorID: testDoctorID,
		Date:     date,
		Time:     timeStr,
		Symptoms: "головная боль",
	}
}

func TestCreateAppointment(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	assert.Equal(t, domain.AppointmentStatusPending, appointment.Status)
	assert.Equal(t, domain.ConsultationTypeInPerson, appointment.ConsultationType)
	assert.Equal(t, float64(1500), appointment.ConsultationFee)
	assert.Equal(t, date, appointment.Date)
	assert.Equal(t, "09:00", appointment.Time)
}

func TestCreateAppointmentDoctorChecks(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	dto := createDTO(date, "09:00")
	dto.DoctorID = 999
	_, err := svc.Create(ctx, testPatientID, dto)
	assert.ErrorIs(t, err, domain.ErrDoctorNotFound)

	doctors := svc.doctorRepo.(*fakeDoctorRepo)

	doctors.doctors[testDoctorID].IsApproved = false
	_, err = svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	assert.ErrorIs(t, err, domain.ErrDoctorNotApproved)

	doctors.doctors[testDoctorID].IsApproved = true
	doctors.doctors[testDoctorID].IsAvailable = false
	_, err = svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	assert.ErrorIs(t, err, domain.ErrDoctorUnavailable)
}

func TestCreateAppointmentPastDate(t *testing.T) {
	svc, _, _ := testFixture(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format(domain.DateLayout)
	_, err := svc.Create(context.Background(), testPatientID, createDTO(yesterday, "09:00"))
	assert.ErrorIs(t, err, domain.ErrPastDate)
}

func TestCreateAppointmentToday(t *testing.T) {
	svc, _, _ := testFixture(t)
	ctx := context.Background()

	// рабочие часы покрывают весь день, слот 00:00 уже прошел,
	// но дата сравнивается по календарному дню
	now := time.Now()
	weekday := strings.ToLower(now.Weekday().String())
	doctors := svc.doctorRepo.(*fakeDoctorRepo)
	doctors.doctors[testDoctorID].WorkingHours = domain.WorkingHours{
		weekday: {{Start: "00:00", End: "23:30"}},
	}

	today := now.Format(domain.DateLayout)
	appointment, err := svc.Create(ctx, testPatientID, createDTO(today, "00:00"))
	require.NoError(t, err)
	assert.Equal(t, today, appointment.Date)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	moved, err := svc.Reschedule(ctx, appointment.ID, owner, domain.RescheduleAppointmentDTO{Date: today, Time: "00:30"})
	require.NoError(t, err)
	assert.Equal(t, "00:30", moved.Time)
}

func TestCreateAppointmentNonWorkingDay(t *testing.T) {
	svc, _, _ := testFixture(t)

	// день недели, следующий за единственным рабочим
	otherDay := time.Now().AddDate(0, 0, 8).Format(domain.DateLayout)
	_, err := svc.Create(context.Background(), testPatientID, createDTO(otherDay, "09:00"))
	assert.ErrorIs(t, err, domain.ErrNonWorkingDay)
}

func TestCreateAppointmentWorkingHoursBoundary(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	// 12:00 — граница интервала, слот недоступен
	_, err := svc.Create(ctx, testPatientID, createDTO(date, "12:00"))
	assert.ErrorIs(t, err, domain.ErrOutsideWorkingHours)

	_, err = svc.Create(ctx, testPatientID, createDTO(date, "08:30"))
	assert.ErrorIs(t, err, domain.ErrOutsideWorkingHours)

	// время вне сетки слотов
	_, err = svc.Create(ctx, testPatientID, createDTO(date, "09:10"))
	assert.ErrorIs(t, err, domain.ErrOutsideWorkingHours)

	_, err = svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	assert.NoError(t, err)
}

func TestCreateAppointmentSlotAlreadyBooked(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, testPatientID+1, createDTO(date, "09:00"))
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyBooked)
}

func TestCreateAppointmentDuplicateBooking(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	// второй слот в тот же день у того же врача
	_, err = svc.Create(ctx, testPatientID, createDTO(date, "10:00"))
	assert.ErrorIs(t, err, domain.ErrDuplicateBooking)
}

func TestCreateAppointmentConcurrent(t *testing.T) {
	svc, repo, date := testFixture(t)
	ctx := context.Background()

	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, testPatientID+int64(i), createDTO(date, "09:00"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrSlotAlreadyBooked)
		}
	}

	assert.Equal(t, 1, successes, "слот должен достаться ровно одному пациенту")
	assert.Len(t, repo.slots, 1)
}

func TestCancelThenRebook(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	actor := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	cancelled, err := svc.Cancel(ctx, appointment.ID, actor, "не смогу прийти")
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, testPatientID, *cancelled.CancelledBy)

	// освобожденный слот доступен другому пациенту
	_, err = svc.Create(ctx, testPatientID+1, createDTO(date, "09:00"))
	assert.NoError(t, err)
}

func TestCancelErrors(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	stranger := domain.Actor{ID: testPatientID + 1, Role: domain.UserRolePatient}
	_, err = svc.Cancel(ctx, appointment.ID, stranger, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	_, err = svc.Cancel(ctx, appointment.ID, owner, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appointment.ID, owner, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	_, err = svc.Cancel(ctx, 999, owner, "")
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestCancelCompletedAppointment(t *testing.T) {
	svc, repo, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, appointment.ID, domain.AppointmentStatusCompleted))

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	_, err = svc.Cancel(ctx, appointment.ID, owner, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReschedule(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}

	moved, err := svc.Reschedule(ctx, appointment.ID, owner, domain.RescheduleAppointmentDTO{Date: date, Time: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.Time)

	// старый слот освобожден
	_, err = svc.Create(ctx, testPatientID+1, createDTO(date, "09:00"))
	assert.NoError(t, err)
}

func TestRescheduleToSameSlot(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}

	// перенос на собственный слот не конфликтует сам с собой
	moved, err := svc.Reschedule(ctx, appointment.ID, owner, domain.RescheduleAppointmentDTO{Date: date, Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", moved.Time)
}

func TestRescheduleToBusySlotKeepsState(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, testPatientID+1, createDTO(date, "10:00"))
	require.NoError(t, err)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	_, err = svc.Reschedule(ctx, first.ID, owner, domain.RescheduleAppointmentDTO{Date: date, Time: "10:00"})
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyBooked)

	// запись осталась на старом слоте
	unchanged, err := svc.GetByID(ctx, first.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "09:00", unchanged.Time)
	assert.Equal(t, date, unchanged.Date)
}

// Перенос доступен только пациенту, которому принадлежит запись.
func TestRescheduleOnlyByOwningPatient(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	_, err = svc.Reschedule(ctx, appointment.ID, doctorActor, domain.RescheduleAppointmentDTO{Date: date, Time: "10:00"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := domain.Actor{ID: 1, Role: domain.UserRoleAdmin}
	_, err = svc.Reschedule(ctx, appointment.ID, admin, domain.RescheduleAppointmentDTO{Date: date, Time: "10:00"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stranger := domain.Actor{ID: testPatientID + 1, Role: domain.UserRolePatient}
	_, err = svc.Reschedule(ctx, appointment.ID, stranger, domain.RescheduleAppointmentDTO{Date: date, Time: "10:00"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	patientActor := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}

	_, err = svc.UpdateStatus(ctx, appointment.ID, patientActor, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	confirmed, err := svc.UpdateStatus(ctx, appointment.ID, doctorActor, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, confirmed.Status)

	completed, err := svc.UpdateStatus(ctx, appointment.ID, doctorActor, domain.UpdateAppointmentStatusDTO{
		Status: domain.AppointmentStatusCompleted,
		Notes:  "осмотр проведен",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "осмотр проведен", completed.DoctorNotes)

	_, err = svc.UpdateStatus(ctx, appointment.ID, doctorActor, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// Статус приема меняет только принимающий врач.
func TestUpdateStatusOnlyByAppointmentDoctor(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	admin := domain.Actor{ID: 1, Role: domain.UserRoleAdmin}
	_, err = svc.UpdateStatus(ctx, appointment.ID, admin, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	otherDoctor := domain.Actor{ID: testDoctorUserID + 1, Role: domain.UserRoleDoctor}
	_, err = svc.UpdateStatus(ctx, appointment.ID, otherDoctor, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateStatusPendingToCompleted(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	completed, err := svc.UpdateStatus(ctx, appointment.ID, doctorActor, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, completed.Status)
}

func TestAddNotes(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	require.NoError(t, svc.AddNotes(ctx, appointment.ID, owner, "аллергия на пенициллин"))
	require.NoError(t, svc.AddNotes(ctx, appointment.ID, owner, "принимаю витамины"))

	updated, err := svc.GetByID(ctx, appointment.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "аллергия на пенициллин\nпринимаю витамины", updated.PatientNotes)
	assert.Empty(t, updated.DoctorNotes)

	stranger := domain.Actor{ID: testPatientID + 1, Role: domain.UserRolePatient}
	assert.ErrorIs(t, svc.AddNotes(ctx, appointment.ID, stranger, "x"), domain.ErrForbidden)

	_, err = svc.Cancel(ctx, appointment.ID, owner, "")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.AddNotes(ctx, appointment.ID, owner, "после отмены"), domain.ErrInvalidTransition)
}

func TestAttachPrescription(t *testing.T) {
	svc, repo, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	dto := domain.AttachPrescriptionDTO{FileName: "recipe.pdf", Data: []byte("%PDF-1.4")}

	// до завершения приема рецепт прикрепить нельзя
	_, err = svc.AttachPrescription(ctx, appointment.ID, doctorActor, dto)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, repo.UpdateStatus(ctx, appointment.ID, domain.AppointmentStatusCompleted))

	url, err := svc.AttachPrescription(ctx, appointment.ID, doctorActor, dto)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	stored, err := repo.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.PrescriptionURL)
}

func TestListScopedByRole(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, testPatientID+1, createDTO(date, "10:00"))
	require.NoError(t, err)

	patient := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	list, total, err := svc.List(ctx, patient, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, testPatientID, list[0].PatientID)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	_, total, err = svc.List(ctx, doctorActor, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	admin := domain.Actor{ID: 1, Role: domain.UserRoleAdmin}
	_, total, err = svc.List(ctx, admin, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestGetFreeSlots(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	slots, err := svc.GetFreeSlots(ctx, testDoctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, slots)

	_, err = svc.Create(ctx, testPatientID, createDTO(date, "09:30"))
	require.NoError(t, err)

	slots, err = svc.GetFreeSlots(ctx, testDoctorID, date)
	require.NoError(t, err)
	assert.NotContains(t, slots, "09:30")
	assert.Len(t, slots, 5)

	yesterday := time.Now().AddDate(0, 0, -1).Format(domain.DateLayout)
	_, err = svc.GetFreeSlots(ctx, testDoctorID, yesterday)
	assert.ErrorIs(t, err, domain.ErrPastDate)
}

func TestGetByIDAccess(t *testing.T) {
	svc, _, date := testFixture(t)
	ctx := context.Background()

	appointment, err := svc.Create(ctx, testPatientID, createDTO(date, "09:00"))
	require.NoError(t, err)

	owner := domain.Actor{ID: testPatientID, Role: domain.UserRolePatient}
	_, err = svc.GetByID(ctx, appointment.ID, owner)
	assert.NoError(t, err)

	doctorActor := domain.Actor{ID: testDoctorUserID, Role: domain.UserRoleDoctor}
	_, err = svc.GetByID(ctx, appointment.ID, doctorActor)
	assert.NoError(t, err)

	stranger := domain.Actor{ID: testPatientID + 5, Role: domain.UserRolePatient}
	_, err = svc.GetByID(ctx, appointment.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
