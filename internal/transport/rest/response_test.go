package rest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"medbook/internal/domain"
)

func TestDomainErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"врач не найден", domain.ErrDoctorNotFound, http.StatusNotFound},
		{"запись не найдена", domain.ErrAppointmentNotFound, http.StatusNotFound},
		{"слот занят", domain.ErrSlotAlreadyBooked, http.StatusConflict},
		{"повторная запись", domain.ErrDuplicateBooking, http.StatusConflict},
		{"слот заблокирован", domain.ErrSlotLocked, http.StatusConflict},
		{"уже отменена", domain.ErrAlreadyCancelled, http.StatusConflict},
		{"доступ запрещен", domain.ErrForbidden, http.StatusForbidden},
		{"недопустимый переход статуса", domain.ErrInvalidTransition, http.StatusBadRequest},
		{"врач не одобрен", domain.ErrDoctorNotApproved, http.StatusBadRequest},
		{"прошедшая дата", domain.ErrPastDate, http.StatusBadRequest},
		{"нерабочий день", domain.ErrNonWorkingDay, http.StatusBadRequest},
		{"вне рабочих часов", domain.ErrOutsideWorkingHours, http.StatusBadRequest},
		{"неизвестная ошибка", errors.New("pgx: connection closed"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			domainErrorResponse(c, tc.err)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}
