package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"pending -> confirmed", AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{"pending -> completed", AppointmentStatusPending, AppointmentStatusCompleted, true},
		{"pending -> cancelled", AppointmentStatusPending, AppointmentStatusCancelled, true},
		{"pending -> no_show", AppointmentStatusPending, AppointmentStatusNoShow, true},
		{"confirmed -> completed", AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{"confirmed -> cancelled", AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{"confirmed -> no_show", AppointmentStatusConfirmed, AppointmentStatusNoShow, true},
		{"confirmed -> pending", AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{"completed терминален", AppointmentStatusCompleted, AppointmentStatusConfirmed, false},
		{"cancelled терминален", AppointmentStatusCancelled, AppointmentStatusPending, false},
		{"no_show терминален", AppointmentStatusNoShow, AppointmentStatusCompleted, false},
		{"cancelled -> cancelled", AppointmentStatusCancelled, AppointmentStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, AppointmentStatusPending.IsTerminal())
	assert.False(t, AppointmentStatusConfirmed.IsTerminal())
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.True(t, AppointmentStatusNoShow.IsTerminal())
}
