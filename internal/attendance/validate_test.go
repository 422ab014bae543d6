package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college/internal/apperr"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{value: "2024-01-10", want: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{value: "2024-02-29", want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{value: "2023-02-29", wantErr: true},
		{value: "invalid-date", wantErr: true},
		{value: "10-01-2024", wantErr: true},
		{value: "2024-1-10", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestValidTimeSlot(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"10:00-12:00", true},
		{"08:30-09:20", true},
		{"23:00-23:59", true},
		{"invalid-time-slot", false},
		{"10:00", false},
		{"10:00 - 12:00", false},
		{"9:00-10:00", false},
		{"24:00-25:00", false},
		{"10:60-11:00", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTimeSlot(tt.value))
		})
	}
}

func TestNormalizeAbsentees(t *testing.T) {
	got := normalizeAbsentees([]string{"A003", " A001", "A001", "", "  ", "A002"})
	assert.Equal(t, []string{"A001", "A002", "A003"}, got)
	assert.Empty(t, normalizeAbsentees(nil))
}
