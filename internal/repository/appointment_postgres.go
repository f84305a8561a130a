package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

const pgUniqueViolation = "23505"

const appointmentColumns = `
	a.id, a.patient_id, a.doctor_id,
	to_char(a.appointment_date, 'YYYY-MM-DD'), a.appointment_time,
	a.status, a.consultation_type, a.consultation_fee,
	a.symptoms, a.doctor_notes, a.patient_notes, a.prescription_url,
	a.cancelled_by, a.cancelled_at, a.cancellation_reason,
	a.created_at, a.updated_at
`

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

// CreateWithSlot создает запись и резервирует слот в одной транзакции.
// Уникальный индекс booked_slots(doctor_id, slot_date, slot_time) — финальная
// гарантия от двойного бронирования: нарушение транслируется в
// domain.ErrSlotAlreadyBooked.
func (r *AppointmentRepo) CreateWithSlot(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO, fee float64) (*domain.Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	consultationType := dto.ConsultationType
	if consultationType == "" {
		consultationType = domain.ConsultationTypeInPerson
	}

	query := `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, appointment_time, status, consultation_type, consultation_fee, symptoms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	appointment := domain.Appointment{
		PatientID:        patientID,
		DoctorID:         dto.DoctorID,
		Date:             dto.Date,
		Time:             dto.Time,
		Status:           domain.AppointmentStatusPending,
		ConsultationType: consultationType,
		ConsultationFee:  fee,
		Symptoms:         dto.Symptoms,
	}

	err = tx.QueryRow(ctx, query,
		patientID,
		dto.DoctorID,
		dto.Date,
		dto.Time,
		domain.AppointmentStatusPending,
		consultationType,
		fee,
		dto.Symptoms,
		now,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("ошибка создания записи на прием: %w", err)
	}

	slotQuery := `
		INSERT INTO booked_slots (doctor_id, slot_date, slot_time, appointment_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, slotQuery, dto.DoctorID, dto.Date, dto.Time, appointment.ID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("ошибка резервирования слота: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return &appointment, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s,
		       pu.first_name || ' ' || pu.last_name,
		       du.first_name || ' ' || du.last_name
		FROM appointments a
		JOIN users pu ON a.patient_id = pu.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN users du ON d.user_id = du.id
		WHERE a.id = $1
	`, appointmentColumns)

	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи на прием: %w", err)
	}

	return appointment, nil
}

// CancelWithSlot помечает запись отмененной и освобождает слот одной
// транзакцией. Отсутствие строки в booked_slots не считается ошибкой.
func (r *AppointmentRepo) CancelWithSlot(ctx context.Context, id int64, cancelledBy int64, reason string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE appointments
		SET status = $1, cancelled_by = $2, cancelled_at = $3, cancellation_reason = $4, updated_at = $3
		WHERE id = $5
	`

	tag, err := tx.Exec(ctx, query, domain.AppointmentStatusCancelled, cancelledBy, time.Now(), reason, id)
	if err != nil {
		return fmt.Errorf("ошибка отмены записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}

	_, err = tx.Exec(ctx, `DELETE FROM booked_slots WHERE appointment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка освобождения слота: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return nil
}

// RescheduleWithSlot переносит запись и ее слот одной транзакцией.
// Конфликт с чужим слотом транслируется в domain.ErrSlotAlreadyBooked,
// состояние при этом не меняется.
func (r *AppointmentRepo) RescheduleWithSlot(ctx context.Context, id int64, newDate, newTime string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	slotQuery := `
		UPDATE booked_slots
		SET slot_date = $1, slot_time = $2
		WHERE appointment_id = $3
	`

	_, err = tx.Exec(ctx, slotQuery, newDate, newTime, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotAlreadyBooked
		}
		return fmt.Errorf("ошибка переноса слота: %w", err)
	}

	query := `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, updated_at = $3
		WHERE id = $4
	`

	tag, err := tx.Exec(ctx, query, newDate, newTime, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка переноса записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}

	return nil
}

// AppendNotes дописывает заметки в колонку роли автора, не затирая
// существующий текст.
func (r *AppointmentRepo) AppendNotes(ctx context.Context, id int64, role domain.UserRole, notes string) error {
	column := "patient_notes"
	if role == domain.UserRoleDoctor {
		column = "doctor_notes"
	}

	query := fmt.Sprintf(`
		UPDATE appointments
		SET %s = CASE WHEN %s = '' THEN $1 ELSE %s || E'\n' || $1 END, updated_at = $2
		WHERE id = $3
	`, column, column, column)

	tag, err := r.db.Exec(ctx, query, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка сохранения заметок: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}

	return nil
}

func (r *AppointmentRepo) SetPrescriptionURL(ctx context.Context, id int64, url string) error {
	query := `
		UPDATE appointments
		SET prescription_url = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, url, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка сохранения рецепта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}

	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	conditions, args := buildAppointmentConditions(filter)

	query := fmt.Sprintf(`
		SELECT %s,
		       pu.first_name || ' ' || pu.last_name,
		       du.first_name || ' ' || du.last_name
		FROM appointments a
		JOIN users pu ON a.patient_id = pu.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN users du ON d.user_id = du.id
	`, appointmentColumns)

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows, true)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки записи: %w", err)
		}
		appointments = append(appointments, *appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	conditions, args := buildAppointmentConditions(filter)

	query := `SELECT COUNT(*) FROM appointments a`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}

// GetBookedSlotIndex собирает занятые слоты врача начиная с fromDate.
func (r *AppointmentRepo) GetBookedSlotIndex(ctx context.Context, doctorID int64, fromDate string) (domain.BookedSlotIndex, error) {
	query := `
		SELECT to_char(slot_date, 'YYYY-MM-DD'), slot_time
		FROM booked_slots
		WHERE doctor_id = $1 AND slot_date >= $2
		ORDER BY slot_date, slot_time
	`

	rows, err := r.db.Query(ctx, query, doctorID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}
	defer rows.Close()

	index := make(domain.BookedSlotIndex)
	for rows.Next() {
		var date, slotTime string
		if err := rows.Scan(&date, &slotTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слотов: %w", err)
		}
		index[date] = append(index[date], slotTime)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return index, nil
}

func (r *AppointmentRepo) HasActiveBooking(ctx context.Context, patientID, doctorID int64, date string, excludeID *int64) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE patient_id = $1
		AND doctor_id = $2
		AND appointment_date = $3
		AND status IN ('pending', 'confirmed')
	`

	args := []interface{}{patientID, doctorID, date}
	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существующих записей: %w", err)
	}

	return count > 0, nil
}

func buildAppointmentConditions(filter domain.AppointmentFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("a.patient_id = $%d", argCount))
		args = append(args, *filter.PatientID)
		argCount++
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("a.doctor_id = $%d", argCount))
		args = append(args, *filter.DoctorID)
		argCount++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.ExcludeStatus != nil {
		conditions = append(conditions, fmt.Sprintf("a.status != $%d", argCount))
		args = append(args, *filter.ExcludeStatus)
		argCount++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.appointment_date >= $%d", argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("a.appointment_date <= $%d", argCount))
		args = append(args, *filter.EndDate)
		argCount++
	}

	return conditions, args
}

func scanAppointment(row pgx.Row, withNames bool) (*domain.Appointment, error) {
	var appointment domain.Appointment

	dest := []interface{}{
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Status,
		&appointment.ConsultationType,
		&appointment.ConsultationFee,
		&appointment.Symptoms,
		&appointment.DoctorNotes,
		&appointment.PatientNotes,
		&appointment.PrescriptionURL,
		&appointment.CancelledBy,
		&appointment.CancelledAt,
		&appointment.CancellationReason,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	}

	if withNames {
		dest = append(dest, &appointment.PatientName, &appointment.DoctorName)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	return &appointment, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
