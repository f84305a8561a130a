package service

import (
	"go.uber.org/zap"

	"medbook/internal/domain"
)

// LogNotificationService пишет уведомления в лог. Реальный канал доставки
// (email, push) подключается заменой этой реализации.
type LogNotificationService struct {
	logger *zap.Logger
}

func NewNotificationService(logger *zap.Logger) *LogNotificationService {
	return &LogNotificationService{
		logger: logger,
	}
}

func (s *LogNotificationService) AppointmentBooked(appointment domain.Appointment) {
	s.logger.Info("уведомление: запись создана",
		zap.Int64("appointmentId", appointment.ID),
		zap.Int64("patientId", appointment.PatientID),
		zap.Int64("doctorId", appointment.DoctorID),
		zap.String("date", appointment.Date),
		zap.String("time", appointment.Time),
	)
}

func (s *LogNotificationService) AppointmentCancelled(appointment domain.Appointment) {
	s.logger.Info("уведомление: запись отменена",
		zap.Int64("appointmentId", appointment.ID),
		zap.Int64("patientId", appointment.PatientID),
		zap.Int64("doctorId", appointment.DoctorID),
	)
}

func (s *LogNotificationService) AppointmentRescheduled(appointment domain.Appointment) {
	s.logger.Info("уведомление: запись перенесена",
		zap.Int64("appointmentId", appointment.ID),
		zap.Int64("patientId", appointment.PatientID),
		zap.Int64("doctorId", appointment.DoctorID),
		zap.String("date", appointment.Date),
		zap.String("time", appointment.Time),
	)
}
