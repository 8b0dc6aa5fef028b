package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Best & Cheap @ Makkah!", "best-cheap-makkah"},
		{"  Ramadan   ", "ramadan"},
		{"Umrah Package 2026", "umrah-package-2026"},
		{"Hajj\t2026\nVIP", "hajj-2026-vip"},
		{"pre-booked umrah", "pre-booked-umrah"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	pattern := regexp.MustCompile(`^umrah-package-[0-9a-z]{6}$`)
	a := UniqueSlug("Umrah Package")
	b := UniqueSlug("Umrah Package")
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)

	assert.Regexp(t, `^[0-9a-z]{6}$`, UniqueSlug("***"))
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "aisha@example.com", NormalizeEmail("  Aisha@Example.COM "))
	assert.True(t, IsValidEmail("aisha@example.com"))
	assert.False(t, IsValidEmail("aisha"))
	assert.False(t, IsValidEmail("a@b"))
	assert.Equal(t, "x", NormalizeString(" x "))
}
