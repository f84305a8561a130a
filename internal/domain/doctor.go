package domain

import (
	"time"
)

type Doctor struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	Specialization  string       `json:"specialization"`
	Bio             string       `json:"bio"`
	ExperienceYears int          `json:"experience_years"`
	ConsultationFee float64      `json:"consultation_fee"`
	SlotMinutes     int          `json:"slot_minutes"`
	IsApproved      bool         `json:"is_approved"`
	IsAvailable     bool         `json:"is_available"`
	WorkingHours    WorkingHours `json:"working_hours"`
	ProfilePhotoURL string       `json:"profile_photo_url"`
	User            User         `json:"user"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type CreateDoctorDTO struct {
	Specialization  string       `json:"specialization" binding:"required"`
	Bio             string       `json:"bio"`
	ExperienceYears int          `json:"experience_years" binding:"min=0"`
	ConsultationFee float64      `json:"consultation_fee" binding:"required,min=0"`
	SlotMinutes     int          `json:"slot_minutes" binding:"omitempty,min=10,max=120"`
	WorkingHours    WorkingHours `json:"working_hours"`
}

type UpdateDoctorDTO struct {
	Specialization  *string  `json:"specialization"`
	Bio             *string  `json:"bio"`
	ExperienceYears *int     `json:"experience_years" binding:"omitempty,min=0"`
	ConsultationFee *float64 `json:"consultation_fee" binding:"omitempty,min=0"`
	SlotMinutes     *int     `json:"slot_minutes" binding:"omitempty,min=10,max=120"`
	IsAvailable     *bool    `json:"is_available"`
}

type DoctorFilter struct {
	Specialization *string `json:"specialization"`
	OnlyApproved   bool    `json:"only_approved"`
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
}
