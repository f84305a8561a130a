package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

type Repositories struct {
	User        UserRepository
	Doctor      DoctorRepository
	Appointment AppointmentRepository
	Auth        AuthRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Doctor:      NewDoctorRepository(db),
		Appointment: NewAppointmentRepository(db),
		Auth:        NewAuthRepository(db),
	}
}

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, userID int64, doctor domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error)
	Update(ctx context.Context, id int64, doctor domain.UpdateDoctorDTO) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	UpdateWorkingHours(ctx context.Context, id int64, hours domain.WorkingHours) error
	UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error)
	Delete(ctx context.Context, id int64) error
}

// AppointmentRepository помимо CRUD отвечает за атомарные пары записей:
// создание записи + резервирование слота, отмена + освобождение, перенос.
// Таблица booked_slots изменяется только здесь.
type AppointmentRepository interface {
	CreateWithSlot(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO, fee float64) (*domain.Appointment, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	CancelWithSlot(ctx context.Context, id int64, cancelledBy int64, reason string) error
	RescheduleWithSlot(ctx context.Context, id int64, newDate, newTime string) error
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error
	AppendNotes(ctx context.Context, id int64, role domain.UserRole, notes string) error
	SetPrescriptionURL(ctx context.Context, id int64, url string) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error)
	GetBookedSlotIndex(ctx context.Context, doctorID int64, fromDate string) (domain.BookedSlotIndex, error)
	HasActiveBooking(ctx context.Context, patientID, doctorID int64, date string, excludeID *int64) (bool, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUserID(ctx context.Context, userID int64) error
}
