package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekHours() WorkingHours {
	return WorkingHours{
		"monday": {
			{Start: "09:00", End: "12:00"},
			{Start: "13:00", End: "18:00"},
		},
		"tuesday": {
			{Start: "10:00", End: "14:00"},
		},
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, value)
	require.NoError(t, err)
	return d
}

func TestWorkingHoursValidate(t *testing.T) {
	tests := []struct {
		name    string
		hours   WorkingHours
		wantErr bool
	}{
		{
			name:  "корректное расписание",
			hours: weekHours(),
		},
		{
			name:  "пустое расписание",
			hours: WorkingHours{},
		},
		{
			name: "неизвестный день",
			hours: WorkingHours{
				"someday": {{Start: "09:00", End: "12:00"}},
			},
			wantErr: true,
		},
		{
			name: "окончание раньше начала",
			hours: WorkingHours{
				"monday": {{Start: "12:00", End: "09:00"}},
			},
			wantErr: true,
		},
		{
			name: "окончание совпадает с началом",
			hours: WorkingHours{
				"monday": {{Start: "09:00", End: "09:00"}},
			},
			wantErr: true,
		},
		{
			name: "пересекающиеся интервалы",
			hours: WorkingHours{
				"monday": {
					{Start: "09:00", End: "13:00"},
					{Start: "12:00", End: "18:00"},
				},
			},
			wantErr: true,
		},
		{
			name: "интервалы встык не пересекаются",
			hours: WorkingHours{
				"monday": {
					{Start: "09:00", End: "12:00"},
					{Start: "12:00", End: "18:00"},
				},
			},
		},
		{
			name: "неверный формат времени",
			hours: WorkingHours{
				"monday": {{Start: "9 утра", End: "12:00"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkingHoursIsWorkingDay(t *testing.T) {
	hours := weekHours()

	// 2026-09-07 понедельник, 2026-09-09 среда
	assert.True(t, hours.IsWorkingDay(mustDate(t, "2026-09-07")))
	assert.False(t, hours.IsWorkingDay(mustDate(t, "2026-09-09")))
}

func TestWorkingHoursIsWithinWorkingHours(t *testing.T) {
	hours := weekHours()
	monday := mustDate(t, "2026-09-07")

	tests := []struct {
		time string
		want bool
	}{
		{"09:00", true},
		{"11:30", true},
		{"12:00", false}, // граница интервала исключается
		{"12:30", false},
		{"13:00", true},
		{"17:30", true},
		{"18:00", false},
		{"08:59", false},
		{"bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.time, func(t *testing.T) {
			assert.Equal(t, tt.want, hours.IsWithinWorkingHours(monday, tt.time))
		})
	}
}

func TestWorkingHoursSlots(t *testing.T) {
	hours := weekHours()
	tuesday := mustDate(t, "2026-09-08")

	slots := hours.Slots(tuesday, 60)
	assert.Equal(t, []string{"10:00", "11:00", "12:00", "13:00"}, slots)

	monday := mustDate(t, "2026-09-07")
	slots = hours.Slots(monday, 30)
	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "11:30")
	assert.NotContains(t, slots, "12:00")
	assert.Contains(t, slots, "13:00")
	assert.Contains(t, slots, "17:30")
	assert.NotContains(t, slots, "18:00")

	assert.Nil(t, hours.Slots(monday, 0))
}

func TestBookedSlotIndexReserve(t *testing.T) {
	idx := BookedSlotIndex{}

	next, err := idx.Reserve("2026-09-07", "10:00")
	require.NoError(t, err)
	assert.False(t, next.IsSlotFree("2026-09-07", "10:00"))

	// исходный индекс не изменился
	assert.True(t, idx.IsSlotFree("2026-09-07", "10:00"))

	_, err = next.Reserve("2026-09-07", "10:00")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)

	other, err := next.Reserve("2026-09-07", "10:30")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30"}, other["2026-09-07"])
}

func TestBookedSlotIndexRelease(t *testing.T) {
	idx := BookedSlotIndex{
		"2026-09-07": {"10:00", "11:00"},
	}

	next := idx.Release("2026-09-07", "10:00")
	assert.True(t, next.IsSlotFree("2026-09-07", "10:00"))
	assert.False(t, next.IsSlotFree("2026-09-07", "11:00"))

	// освобождение свободного слота идемпотентно
	again := next.Release("2026-09-07", "10:00")
	assert.Equal(t, next, again)

	// дата без слотов удаляется из индекса
	empty := again.Release("2026-09-07", "11:00")
	_, ok := empty["2026-09-07"]
	assert.False(t, ok)
}

func TestBookedSlotIndexReleaseThenReserve(t *testing.T) {
	idx := BookedSlotIndex{
		"2026-09-07": {"10:00"},
	}

	released := idx.Release("2026-09-07", "10:00")

	next, err := released.Reserve("2026-09-07", "10:00")
	require.NoError(t, err)
	assert.False(t, next.IsSlotFree("2026-09-07", "10:00"))
}
