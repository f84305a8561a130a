package domain

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// IsTerminal — из терминального статуса переходы запрещены.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

// allowedTransitions описывает машину статусов записи. Переход
// pending -> completed разрешен сознательно: врач может закрыть прием,
// который не был явно подтвержден.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
}

func CanTransition(from, to AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type ConsultationType string

const (
	ConsultationTypeInPerson ConsultationType = "in_person"
	ConsultationTypeVideo    ConsultationType = "video"
)

type Appointment struct {
	ID               int64             `json:"id"`
	PatientID        int64             `json:"patient_id"`
	DoctorID         int64             `json:"doctor_id"`
	Date             string            `json:"date"`
	Time             string            `json:"time"`
	Status           AppointmentStatus `json:"status"`
	ConsultationType ConsultationType  `json:"consultation_type"`
	// Снимок цены консультации на момент бронирования, не связан с
	// текущей ценой врача.
	ConsultationFee    float64    `json:"consultation_fee"`
	Symptoms           string     `json:"symptoms,omitempty"`
	DoctorNotes        string     `json:"doctor_notes,omitempty"`
	PatientNotes       string     `json:"patient_notes,omitempty"`
	PrescriptionURL    string     `json:"prescription_url,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	PatientName        string     `json:"patient_name,omitempty"`
	DoctorName         string     `json:"doctor_name,omitempty"`
}

type CreateAppointmentDTO struct {
	DoctorID         int64            `json:"doctor_id" binding:"required"`
	Date             string           `json:"date" binding:"required"`
	Time             string           `json:"time" binding:"required"`
	Symptoms         string           `json:"symptoms"`
	ConsultationType ConsultationType `json:"consultation_type" binding:"omitempty,oneof=in_person video"`
}

type RescheduleAppointmentDTO struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type CancelAppointmentDTO struct {
	Reason string `json:"reason"`
}

type UpdateAppointmentStatusDTO struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=confirmed completed no_show"`
	Notes  string            `json:"notes"`
}

type AttachPrescriptionDTO struct {
	FileName string `json:"file_name" binding:"required"`
	Data     []byte `json:"-"`
}

type AppointmentFilter struct {
	PatientID     *int64             `json:"patient_id"`
	DoctorID      *int64             `json:"doctor_id"`
	Status        *AppointmentStatus `json:"status"`
	ExcludeStatus *AppointmentStatus `json:"exclude_status"`
	StartDate     *time.Time         `json:"start_date"`
	EndDate       *time.Time         `json:"end_date"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}
