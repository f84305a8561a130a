package service

import (
	"context"

	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/lock"
	"medbook/internal/repository"
	"medbook/internal/storage"
)

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Locker      lock.Locker
}

type Services struct {
	User        UserService
	Auth        AuthService
	Doctor      DoctorService
	Appointment AppointmentService
}

func NewServices(deps Deps) *Services {
	notifier := NewNotificationService(deps.Logger)

	return &Services{
		User:        NewUserService(deps.Repos.User, deps.Logger),
		Auth:        NewAuthService(deps.Repos.Auth, deps.Repos.User, deps.Config.JWT, deps.Logger),
		Doctor:      NewDoctorService(deps.Repos.Doctor, deps.Repos.User, deps.FileStorage, deps.Logger),
		Appointment: NewAppointmentService(deps.Repos.Appointment, deps.Repos.Doctor, deps.Locker, notifier, deps.FileStorage, deps.Logger),
	}
}

type UserService interface {
	Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type DoctorService interface {
	Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error)
	Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error
	Approve(ctx context.Context, id int64) error
	SetWorkingHours(ctx context.Context, id int64, hours domain.WorkingHours) error
	UploadProfilePhoto(ctx context.Context, doctorID int64, photo []byte, filename string) error
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error)
	Delete(ctx context.Context, id int64) error
}

// AppointmentService — сервис резервирования слотов: единственная точка
// изменения записей на прием и занятых слотов врача.
type AppointmentService interface {
	Create(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (*domain.Appointment, error)
	GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Appointment, error)
	Cancel(ctx context.Context, id int64, actor domain.Actor, reason string) (*domain.Appointment, error)
	Reschedule(ctx context.Context, id int64, actor domain.Actor, dto domain.RescheduleAppointmentDTO) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, actor domain.Actor, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error)
	AddNotes(ctx context.Context, id int64, actor domain.Actor, notes string) error
	AttachPrescription(ctx context.Context, id int64, actor domain.Actor, dto domain.AttachPrescriptionDTO) (string, error)
	List(ctx context.Context, actor domain.Actor, filter domain.AppointmentFilter) ([]domain.Appointment, int, error)
	GetFreeSlots(ctx context.Context, doctorID int64, date string) ([]string, error)
}

type AuthService interface {
	Register(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error)
}

// NotificationService — заглушка уведомлений: вызывается после успешной
// операции в режиме fire-and-forget, сбой отправки не откатывает бронирование.
type NotificationService interface {
	AppointmentBooked(appointment domain.Appointment)
	AppointmentCancelled(appointment domain.Appointment)
	AppointmentRescheduled(appointment domain.Appointment)
}
