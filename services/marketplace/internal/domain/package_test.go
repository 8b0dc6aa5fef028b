package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackagePatchApply(t *testing.T) {
	stars := 4
	p := &Package{
		ID:               "pkg-1",
		OperatorID:       "op-1",
		Title:            "Old",
		Status:           PackageDraft,
		PricePerPerson:   1000,
		HotelMakkahStars: &stars,
	}

	title := "New"
	published := PackagePublished
	sameStars := 4
	newMadinah := 3
	changes := PackagePatch{
		Title:             &title,
		Status:            &published,
		HotelMakkahStars:  &sameStars,
		HotelMadinahStars: &newMadinah,
	}.Apply(p)

	assert.Equal(t, []string{"title", "status", "hotel_madinah_stars"}, changes)
	assert.Equal(t, "New", p.Title)
	assert.True(t, p.IsPublished())
	assert.Equal(t, 3, *p.HotelMadinahStars)
	assert.Equal(t, "pkg-1", p.ID)
	assert.True(t, p.IsOwnedBy("op-1"))

	newMadinah = 5
	assert.Equal(t, 3, *p.HotelMadinahStars, "patch values are copied, not aliased")
}

func TestPackagePatchEmpty(t *testing.T) {
	p := &Package{Title: "Same"}
	assert.Empty(t, PackagePatch{}.Apply(p))
}

func TestParseHelpers(t *testing.T) {
	_, ok := ParseRole("operator")
	assert.True(t, ok)
	_, ok = ParseRole("guest")
	assert.False(t, ok)

	_, ok = ParsePilgrimageType("hajj")
	assert.True(t, ok)
	_, ok = ParseDistanceBand("close")
	assert.False(t, ok)
	_, ok = ParsePackageStatus("published")
	assert.True(t, ok)
}
