package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/lock"
	"medbook/internal/repository"
	"medbook/internal/storage"
)

type AppointmentServiceImpl struct {
	repo       repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	locker     lock.Locker
	notifier   NotificationService
	storage    storage.FileStorage
	logger     *zap.Logger
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	locker lock.Locker,
	notifier NotificationService,
	storage storage.FileStorage,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:       repo,
		doctorRepo: doctorRepo,
		locker:     locker,
		notifier:   notifier,
		storage:    storage,
		logger:     logger,
	}
}

// Create бронирует слот у врача. Предусловия проверяются в фиксированном
// порядке: врач, дата, рабочие часы, затем занятость слота. Проверка
// занятости и вставка выполняются под блокировкой врача, уникальный
// индекс booked_slots остается последней линией защиты от двойного
// бронирования.
func (s *AppointmentServiceImpl) Create(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, dto.DoctorID)
	if err != nil {
		return nil, err
	}

	if !doctor.IsApproved {
		return nil, domain.ErrDoctorNotApproved
	}

	if !doctor.IsAvailable {
		return nil, domain.ErrDoctorUnavailable
	}

	slotAt, err := parseSlot(dto.Date, dto.Time)
	if err != nil {
		return nil, err
	}

	// дата сравнивается по календарному дню, время не учитывается:
	// запись на сегодня допустима в любое время суток
	if dto.Date < time.Now().Format(domain.DateLayout) {
		return nil, domain.ErrPastDate
	}

	if !doctor.WorkingHours.IsWorkingDay(slotAt) {
		return nil, domain.ErrNonWorkingDay
	}

	if !doctor.WorkingHours.IsWithinWorkingHours(slotAt, dto.Time) {
		return nil, domain.ErrOutsideWorkingHours
	}

	if !slotOnGrid(doctor.WorkingHours, slotAt, dto.Time, doctor.SlotMinutes) {
		return nil, domain.ErrOutsideWorkingHours
	}

	if dto.ConsultationType == "" {
		dto.ConsultationType = domain.ConsultationTypeInPerson
	}

	var appointment *domain.Appointment

	err = s.locker.WithDoctorLock(ctx, doctor.ID, func(ctx context.Context) error {
		index, err := s.repo.GetBookedSlotIndex(ctx, doctor.ID, dto.Date)
		if err != nil {
			return err
		}

		if !index.IsSlotFree(dto.Date, dto.Time) {
			return domain.ErrSlotAlreadyBooked
		}

		hasBooking, err := s.repo.HasActiveBooking(ctx, patientID, doctor.ID, dto.Date, nil)
		if err != nil {
			return err
		}
		if hasBooking {
			return domain.ErrDuplicateBooking
		}

		if _, err := index.Reserve(dto.Date, dto.Time); err != nil {
			return err
		}

		appointment, err = s.repo.CreateWithSlot(ctx, patientID, dto, doctor.ConsultationFee)
		return err
	})

	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			s.logger.Warn("слот врача заблокирован конкурентным запросом",
				zap.Int64("doctorId", doctor.ID),
				zap.String("date", dto.Date),
				zap.String("time", dto.Time),
			)
			return nil, domain.ErrSlotLocked
		}
		return nil, err
	}

	s.logger.Info("создана запись на прием",
		zap.Int64("appointmentId", appointment.ID),
		zap.Int64("patientId", patientID),
		zap.Int64("doctorId", doctor.ID),
		zap.String("date", dto.Date),
		zap.String("time", dto.Time),
	)

	go s.notifier.AppointmentBooked(*appointment)

	return appointment, nil
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.canView(ctx, appointment, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	return appointment, nil
}

// Cancel отменяет запись и освобождает слот. Отмененный слот сразу
// доступен для повторного бронирования.
func (s *AppointmentServiceImpl) Cancel(ctx context.Context, id int64, actor domain.Actor, reason string) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.canModify(ctx, appointment, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	if appointment.Status == domain.AppointmentStatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	if !domain.CanTransition(appointment.Status, domain.AppointmentStatusCancelled) {
		return nil, domain.ErrInvalidTransition
	}

	slotAt, err := parseSlot(appointment.Date, appointment.Time)
	if err != nil {
		return nil, err
	}
	if slotAt.Before(time.Now()) && actor.Role != domain.UserRoleAdmin {
		return nil, domain.ErrPastAppointment
	}

	if err := s.repo.CancelWithSlot(ctx, id, actor.ID, reason); err != nil {
		return nil, err
	}

	cancelled, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("запись на прием отменена",
		zap.Int64("appointmentId", id),
		zap.Int64("cancelledBy", actor.ID),
	)

	go s.notifier.AppointmentCancelled(*cancelled)

	return cancelled, nil
}

// Reschedule переносит запись на новый слот того же врача. Собственный
// слот записи исключается из проверки занятости, поэтому перенос на то
// же время завершается успешно. При ошибке запись остается на старом
// слоте.
func (s *AppointmentServiceImpl) Reschedule(ctx context.Context, id int64, actor domain.Actor, dto domain.RescheduleAppointmentDTO) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// перенос доступен только пациенту, которому принадлежит запись
	if actor.Role != domain.UserRolePatient || appointment.PatientID != actor.ID {
		return nil, domain.ErrForbidden
	}

	if appointment.Status.IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}

	doctor, err := s.doctorRepo.GetByID(ctx, appointment.DoctorID)
	if err != nil {
		return nil, err
	}

	if !doctor.IsAvailable {
		return nil, domain.ErrDoctorUnavailable
	}

	slotAt, err := parseSlot(dto.Date, dto.Time)
	if err != nil {
		return nil, err
	}

	if dto.Date < time.Now().Format(domain.DateLayout) {
		return nil, domain.ErrPastDate
	}

	if !doctor.WorkingHours.IsWorkingDay(slotAt) {
		return nil, domain.ErrNonWorkingDay
	}

	if !doctor.WorkingHours.IsWithinWorkingHours(slotAt, dto.Time) {
		return nil, domain.ErrOutsideWorkingHours
	}

	if !slotOnGrid(doctor.WorkingHours, slotAt, dto.Time, doctor.SlotMinutes) {
		return nil, domain.ErrOutsideWorkingHours
	}

	err = s.locker.WithDoctorLock(ctx, doctor.ID, func(ctx context.Context) error {
		index, err := s.repo.GetBookedSlotIndex(ctx, doctor.ID, minDate(appointment.Date, dto.Date))
		if err != nil {
			return err
		}

		index = index.Release(appointment.Date, appointment.Time)

		if !index.IsSlotFree(dto.Date, dto.Time) {
			return domain.ErrSlotAlreadyBooked
		}

		hasBooking, err := s.repo.HasActiveBooking(ctx, appointment.PatientID, doctor.ID, dto.Date, &appointment.ID)
		if err != nil {
			return err
		}
		if hasBooking {
			return domain.ErrDuplicateBooking
		}

		return s.repo.RescheduleWithSlot(ctx, id, dto.Date, dto.Time)
	})

	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, domain.ErrSlotLocked
		}
		return nil, err
	}

	rescheduled, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("запись на прием перенесена",
		zap.Int64("appointmentId", id),
		zap.String("date", dto.Date),
		zap.String("time", dto.Time),
	)

	go s.notifier.AppointmentRescheduled(*rescheduled)

	return rescheduled, nil
}

func (s *AppointmentServiceImpl) UpdateStatus(ctx context.Context, id int64, actor domain.Actor, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// статус приема меняет только принимающий врач
	ok, err := s.isAppointmentDoctor(ctx, appointment, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	if !domain.CanTransition(appointment.Status, dto.Status) {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, dto.Status); err != nil {
		return nil, err
	}

	if dto.Notes != "" {
		if err := s.repo.AppendNotes(ctx, id, domain.UserRoleDoctor, dto.Notes); err != nil {
			return nil, err
		}
	}

	s.logger.Info("статус записи изменен",
		zap.Int64("appointmentId", id),
		zap.String("from", string(appointment.Status)),
		zap.String("to", string(dto.Status)),
	)

	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentServiceImpl) AddNotes(ctx context.Context, id int64, actor domain.Actor, notes string) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if appointment.Status == domain.AppointmentStatusCancelled || appointment.Status == domain.AppointmentStatusNoShow {
		return domain.ErrInvalidTransition
	}

	switch actor.Role {
	case domain.UserRolePatient:
		if appointment.PatientID != actor.ID {
			return domain.ErrForbidden
		}
		return s.repo.AppendNotes(ctx, id, domain.UserRolePatient, notes)
	case domain.UserRoleDoctor:
		ok, err := s.isAppointmentDoctor(ctx, appointment, actor)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrForbidden
		}
		return s.repo.AppendNotes(ctx, id, domain.UserRoleDoctor, notes)
	default:
		return domain.ErrForbidden
	}
}

func (s *AppointmentServiceImpl) AttachPrescription(ctx context.Context, id int64, actor domain.Actor, dto domain.AttachPrescriptionDTO) (string, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	ok, err := s.isAppointmentDoctor(ctx, appointment, actor)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrForbidden
	}

	if appointment.Status != domain.AppointmentStatusCompleted {
		return "", domain.ErrInvalidTransition
	}

	url, err := s.storage.UploadFile(ctx, dto.Data, fmt.Sprintf("prescriptions/%d_%s", id, dto.FileName))
	if err != nil {
		s.logger.Error("ошибка загрузки рецепта", zap.Int64("appointmentId", id), zap.Error(err))
		return "", fmt.Errorf("ошибка загрузки файла рецепта: %w", err)
	}

	if err := s.repo.SetPrescriptionURL(ctx, id, url); err != nil {
		return "", err
	}

	return url, nil
}

// List возвращает записи, видимые актору: пациент видит только свои,
// врач только записи к себе, администратор все.
func (s *AppointmentServiceImpl) List(ctx context.Context, actor domain.Actor, filter domain.AppointmentFilter) ([]domain.Appointment, int, error) {
	switch actor.Role {
	case domain.UserRolePatient:
		filter.PatientID = &actor.ID
	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		filter.DoctorID = &doctor.ID
	case domain.UserRoleAdmin:
	default:
		return nil, 0, domain.ErrForbidden
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}

// GetFreeSlots строит сетку слотов врача на дату и вычитает занятые.
// Для сегодняшней даты прошедшие слоты не возвращаются.
func (s *AppointmentServiceImpl) GetFreeSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if !doctor.IsApproved {
		return nil, domain.ErrDoctorNotApproved
	}

	day, err := time.ParseInLocation(domain.DateLayout, date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("неверный формат даты %q: ожидается YYYY-MM-DD", date)
	}

	today := time.Now().Format(domain.DateLayout)
	if date < today {
		return nil, domain.ErrPastDate
	}

	index, err := s.repo.GetBookedSlotIndex(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	nowTime := time.Now().Format(domain.TimeLayout)

	free := make([]string, 0)
	for _, slot := range doctor.WorkingHours.Slots(day, doctor.SlotMinutes) {
		if date == today && slot <= nowTime {
			continue
		}
		if index.IsSlotFree(date, slot) {
			free = append(free, slot)
		}
	}

	return free, nil
}

func (s *AppointmentServiceImpl) canView(ctx context.Context, appointment *domain.Appointment, actor domain.Actor) (bool, error) {
	return s.canModify(ctx, appointment, actor)
}

func (s *AppointmentServiceImpl) canModify(ctx context.Context, appointment *domain.Appointment, actor domain.Actor) (bool, error) {
	switch actor.Role {
	case domain.UserRoleAdmin:
		return true, nil
	case domain.UserRolePatient:
		return appointment.PatientID == actor.ID, nil
	case domain.UserRoleDoctor:
		return s.isAppointmentDoctor(ctx, appointment, actor)
	default:
		return false, nil
	}
}

func (s *AppointmentServiceImpl) isAppointmentDoctor(ctx context.Context, appointment *domain.Appointment, actor domain.Actor) (bool, error) {
	if actor.Role != domain.UserRoleDoctor {
		return false, nil
	}

	doctor, err := s.doctorRepo.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return false, nil
		}
		return false, err
	}

	return doctor.ID == appointment.DoctorID, nil
}

// slotOnGrid проверяет, что время совпадает с началом слота сетки
// интервала, в который оно попадает.
func slotOnGrid(hours domain.WorkingHours, date time.Time, timeStr string, step int) bool {
	if step <= 0 {
		step = 30
	}

	for _, slot := range hours.Slots(date, step) {
		if slot == timeStr {
			return true
		}
	}

	return false
}

func parseSlot(date, timeStr string) (time.Time, error) {
	slotAt, err := time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("неверный формат даты или времени: ожидается YYYY-MM-DD и HH:MM")
	}
	return slotAt, nil
}

func minDate(a, b string) string {
	if a < b {
		return a
	}
	return b
}
