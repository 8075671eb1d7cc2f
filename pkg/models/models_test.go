package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlots(t *testing.T) {
	tests := []struct {
		name     string
		timeSlot string
		want     []string
	}{
		{"single slot", "19", []string{"19"}},
		{"multiple slots", "19;20;21", []string{"19", "20", "21"}},
		{"trailing separator", "19;20;", []string{"19", "20"}},
		{"whitespace around slots", " 19 ; 20 ", []string{"19", "20"}},
		{"empty value", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{TimeSlot: tt.timeSlot}
			assert.Equal(t, tt.want, rec.Slots())
		})
	}
}

func TestParseDate(t *testing.T) {
	rec := Record{Date: "2026-09-01"}
	d, err := rec.ParseDate()
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())

	rec.Date = "09/01/2026"
	_, err = rec.ParseDate()
	assert.Error(t, err)
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"", true},
		{"13800138000", true},
		{"1380013800", false},
		{"138001380000", false},
		{"1380013800a", false},
		{"+8613800138000", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPhone(tt.phone), "phone %q", tt.phone)
	}
}
