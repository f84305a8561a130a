package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/repository"
	"medbook/internal/storage"
)

type DoctorServiceImpl struct {
	repo     repository.DoctorRepository
	userRepo repository.UserRepository
	storage  storage.FileStorage
	logger   *zap.Logger
}

func NewDoctorService(repo repository.DoctorRepository, userRepo repository.UserRepository, storage storage.FileStorage, logger *zap.Logger) *DoctorServiceImpl {
	return &DoctorServiceImpl{
		repo:     repo,
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

// Create создает профиль врача для пользователя с ролью doctor. Профиль
// создается неподтвержденным: запись к врачу возможна только после
// одобрения администратором.
func (s *DoctorServiceImpl) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.Role != domain.UserRoleDoctor {
		return 0, errors.New("профиль врача доступен только пользователям с ролью doctor")
	}

	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil && existing != nil {
		return 0, errors.New("профиль врача уже существует")
	}

	if dto.WorkingHours != nil {
		if err := dto.WorkingHours.Validate(); err != nil {
			return 0, fmt.Errorf("неверное расписание: %w", err)
		}
	}

	id, err := s.repo.Create(ctx, userID, dto)
	if err != nil {
		s.logger.Error("ошибка создания профиля врача", zap.Int64("userId", userID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("создан профиль врача", zap.Int64("doctorId", id), zap.Int64("userId", userID))

	return id, nil
}

func (s *DoctorServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorServiceImpl) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *DoctorServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.repo.Update(ctx, id, dto)
}

func (s *DoctorServiceImpl) Approve(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return err
	}

	s.logger.Info("профиль врача одобрен", zap.Int64("doctorId", id))

	return nil
}

// SetWorkingHours заменяет недельное расписание целиком. Уже созданные
// записи на прием при смене расписания не отменяются.
func (s *DoctorServiceImpl) SetWorkingHours(ctx context.Context, id int64, hours domain.WorkingHours) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := hours.Validate(); err != nil {
		return fmt.Errorf("неверное расписание: %w", err)
	}

	if err := s.repo.UpdateWorkingHours(ctx, id, hours); err != nil {
		return err
	}

	s.logger.Info("обновлено расписание врача", zap.Int64("doctorId", id))

	return nil
}

func (s *DoctorServiceImpl) UploadProfilePhoto(ctx context.Context, doctorID int64, photo []byte, filename string) error {
	doctor, err := s.repo.GetByID(ctx, doctorID)
	if err != nil {
		return err
	}

	if doctor.ProfilePhotoURL != "" {
		if err := s.storage.DeleteFile(ctx, doctor.ProfilePhotoURL); err != nil {
			s.logger.Warn("не удалось удалить старое фото", zap.Int64("doctorId", doctorID), zap.Error(err))
		}
	}

	url, err := s.storage.UploadFile(ctx, photo, fmt.Sprintf("doctors/%d_%s", doctorID, filename))
	if err != nil {
		s.logger.Error("ошибка загрузки фото профиля", zap.Int64("doctorId", doctorID), zap.Error(err))
		return fmt.Errorf("ошибка загрузки фото: %w", err)
	}

	return s.repo.UpdateProfilePhoto(ctx, doctorID, url)
}

func (s *DoctorServiceImpl) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	return s.repo.List(ctx, filter)
}

func (s *DoctorServiceImpl) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
