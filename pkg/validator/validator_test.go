package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDate(t *testing.T) {
	assert.True(t, ValidateDate("2026-09-07"))
	assert.False(t, ValidateDate("07.09.2026"))
	assert.False(t, ValidateDate("2026-13-01"))
	assert.False(t, ValidateDate(""))
}

func TestValidateTime(t *testing.T) {
	assert.True(t, ValidateTime("09:00"))
	assert.True(t, ValidateTime("23:59"))
	assert.False(t, ValidateTime("24:00"))
	assert.False(t, ValidateTime("9:00:00"))
	assert.False(t, ValidateTime(""))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+79161234567"))
	assert.True(t, ValidatePhone("8 (916) 123-45-67"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("abc"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+79161234567", FormatPhone("8 (916) 123-45-67"))
	assert.Equal(t, "+79161234567", FormatPhone("+7 916 123 45 67"))
	assert.Equal(t, "+79161234567", FormatPhone("79161234567"))
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "Иванов", FormatName("иванов"))
	assert.Equal(t, "Петрова-Сидорова", FormatName("петрова-сидорова"))
	assert.Equal(t, "Анна Мария", FormatName("анна мария"))
	assert.Equal(t, "", FormatName(""))
}
