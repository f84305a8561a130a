package domain

import (
	"errors"
)

// Ошибки бизнес-правил бронирования. Сервис записи возвращает только их,
// транспортный слой сопоставляет каждую с HTTP-статусом.
var (
	ErrDoctorNotFound      = errors.New("врач не найден")
	ErrAppointmentNotFound = errors.New("запись не найдена")

	ErrDoctorNotApproved   = errors.New("врач еще не прошел проверку администратором")
	ErrDoctorUnavailable   = errors.New("врач временно не принимает пациентов")
	ErrPastDate            = errors.New("нельзя записаться на прошедшую дату")
	ErrPastAppointment     = errors.New("нельзя изменить прошедшую запись")
	ErrNonWorkingDay       = errors.New("выбранный день не является рабочим")
	ErrOutsideWorkingHours = errors.New("выбранное время вне рабочих часов врача")

	ErrSlotAlreadyBooked = errors.New("выбранный слот времени уже занят")
	ErrDuplicateBooking  = errors.New("у пациента уже есть активная запись к этому врачу на эту дату")
	ErrAlreadyCancelled  = errors.New("запись уже отменена")
	ErrSlotLocked        = errors.New("слот в данный момент бронируется, повторите попытку")

	ErrForbidden         = errors.New("доступ запрещен")
	ErrInvalidTransition = errors.New("недопустимый переход статуса записи")
)
