package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// GenerateSlug lowercases title, drops everything outside [a-z0-9], whitespace and
// hyphens, trims, and joins the remaining words with hyphens.
func GenerateSlug(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return slugWhitespace.ReplaceAllString(s, "-")
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomSuffix returns n random base-36 characters.
func RandomSuffix(n int) string {
	var b strings.Builder
	b.Grow(n)
	radix := big.NewInt(int64(len(suffixAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, radix)
		if err != nil {
			panic("utils: crypto/rand unavailable: " + err.Error())
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return b.String()
}

// UniqueSlug is GenerateSlug plus a random disambiguation suffix. An empty base slug
// yields just the suffix.
func UniqueSlug(title string) string {
	base := GenerateSlug(title)
	suffix := RandomSuffix(6)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}

	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}

	local, domain := parts[0], parts[1]
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".")
}
