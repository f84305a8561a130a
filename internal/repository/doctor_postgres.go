package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

const doctorColumns = `
	d.id, d.user_id, d.specialization, d.bio, d.experience_years,
	d.consultation_fee, d.slot_minutes, d.is_approved, d.is_available,
	d.working_hours, d.profile_photo_url, d.created_at, d.updated_at,
	u.id, u.first_name, u.last_name, u.middle_name, u.email, u.phone, u.role, u.is_active, u.created_at, u.updated_at
`

type DoctorRepo struct {
	db *pgxpool.Pool
}

func NewDoctorRepository(db *pgxpool.Pool) *DoctorRepo {
	return &DoctorRepo{
		db: db,
	}
}

func (r *DoctorRepo) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	slotMinutes := dto.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = 30
	}

	workingHours := dto.WorkingHours
	if workingHours == nil {
		workingHours = domain.WorkingHours{}
	}

	query := `
		INSERT INTO doctors (user_id, specialization, bio, experience_years, consultation_fee, slot_minutes, is_approved, is_available, working_hours, profile_photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, TRUE, $7, '', $8, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		userID,
		dto.Specialization,
		dto.Bio,
		dto.ExperienceYears,
		dto.ConsultationFee,
		slotMinutes,
		workingHours,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("ошибка создания профиля врача: %w", err)
	}

	return id, nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM doctors d
		JOIN users u ON d.user_id = u.id
		WHERE d.id = $1
	`, doctorColumns)

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля врача: %w", err)
	}

	return doctor, nil
}

func (r *DoctorRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM doctors d
		JOIN users u ON d.user_id = u.id
		WHERE d.user_id = $1
	`, doctorColumns)

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля врача: %w", err)
	}

	return doctor, nil
}

func (r *DoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	var updateFields []string
	var args []interface{}

	argCount := 1

	if dto.Specialization != nil {
		updateFields = append(updateFields, fmt.Sprintf("specialization = $%d", argCount))
		args = append(args, *dto.Specialization)
		argCount++
	}

	if dto.Bio != nil {
		updateFields = append(updateFields, fmt.Sprintf("bio = $%d", argCount))
		args = append(args, *dto.Bio)
		argCount++
	}

	if dto.ExperienceYears != nil {
		updateFields = append(updateFields, fmt.Sprintf("experience_years = $%d", argCount))
		args = append(args, *dto.ExperienceYears)
		argCount++
	}

	if dto.ConsultationFee != nil {
		updateFields = append(updateFields, fmt.Sprintf("consultation_fee = $%d", argCount))
		args = append(args, *dto.ConsultationFee)
		argCount++
	}

	if dto.SlotMinutes != nil {
		updateFields = append(updateFields, fmt.Sprintf("slot_minutes = $%d", argCount))
		args = append(args, *dto.SlotMinutes)
		argCount++
	}

	if dto.IsAvailable != nil {
		updateFields = append(updateFields, fmt.Sprintf("is_available = $%d", argCount))
		args = append(args, *dto.IsAvailable)
		argCount++
	}

	if len(updateFields) == 0 {
		return nil
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE doctors
		SET %s
		WHERE id = $%d
	`, strings.Join(updateFields, ", "), argCount)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля врача: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func (r *DoctorRepo) SetApproved(ctx context.Context, id int64, approved bool) error {
	query := `
		UPDATE doctors
		SET is_approved = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, approved, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка изменения статуса проверки врача: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func (r *DoctorRepo) UpdateWorkingHours(ctx context.Context, id int64, hours domain.WorkingHours) error {
	query := `
		UPDATE doctors
		SET working_hours = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, hours, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления рабочих часов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func (r *DoctorRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	query := `
		UPDATE doctors
		SET profile_photo_url = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, photoURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления фото профиля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func (r *DoctorRepo) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.Specialization != nil {
		conditions = append(conditions, fmt.Sprintf("d.specialization = $%d", argCount))
		args = append(args, *filter.Specialization)
		argCount++
	}

	if filter.OnlyApproved {
		conditions = append(conditions, "d.is_approved = TRUE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM doctors d` + whereClause

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета врачей: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM doctors d
		JOIN users u ON d.user_id = u.id
		%s
		ORDER BY d.id
		LIMIT $%d OFFSET $%d
	`, doctorColumns, whereClause, argCount, argCount+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка врачей: %w", err)
	}
	defer rows.Close()

	doctors := make([]domain.Doctor, 0)
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования строки врача: %w", err)
		}
		doctors = append(doctors, *doctor)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return doctors, total, nil
}

func (r *DoctorRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM doctors WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления профиля врача: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func scanDoctor(row pgx.Row) (*domain.Doctor, error) {
	var doctor domain.Doctor

	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.Specialization,
		&doctor.Bio,
		&doctor.ExperienceYears,
		&doctor.ConsultationFee,
		&doctor.SlotMinutes,
		&doctor.IsApproved,
		&doctor.IsAvailable,
		&doctor.WorkingHours,
		&doctor.ProfilePhotoURL,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
		&doctor.User.ID,
		&doctor.User.FirstName,
		&doctor.User.LastName,
		&doctor.User.MiddleName,
		&doctor.User.Email,
		&doctor.User.Phone,
		&doctor.User.Role,
		&doctor.User.IsActive,
		&doctor.User.CreatedAt,
		&doctor.User.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &doctor, nil
}
