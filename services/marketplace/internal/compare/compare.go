// Package compare projects offers and packages onto one display-ready row shape and
// manages the bounded selection of rows a customer compares side by side.
package compare

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// NotProvided is the placeholder for every absent value. Rows never carry empty strings.
const NotProvided = "Not provided"

// MaxSelection is the largest number of items that can be compared at once.
const MaxSelection = 3

var (
	ErrOfferSelectionLimit   = errors.New("You can compare up to 3 offers")
	ErrPackageSelectionLimit = errors.New("You can compare up to 3 packages")
)

// IsSelectionLimit reports whether err came from a selection that grew past MaxSelection.
func IsSelectionLimit(err error) bool {
	return errors.Is(err, ErrOfferSelectionLimit) || errors.Is(err, ErrPackageSelectionLimit)
}

type ComparisonRow struct {
	ID           string `json:"id"`
	Price        string `json:"price"`
	OperatorName string `json:"operator_name"`
	TotalNights  string `json:"total_nights"`
	SplitNights  string `json:"split_nights"`
	HotelRating  string `json:"hotel_rating"`
	Distance     string `json:"distance"`
	Occupancy    string `json:"occupancy"`
	Inclusions   string `json:"inclusions"`
	Notes        string `json:"notes"`
}

// MapOfferToComparison builds a row for offer. op may be nil.
func MapOfferToComparison(offer domain.Offer, op *domain.OperatorProfile) ComparisonRow {
	hotel := NotProvided
	if offer.HotelStars > 0 {
		hotel = fmt.Sprintf("%d Stars", offer.HotelStars)
	}
	return ComparisonRow{
		ID:           offer.ID,
		Price:        formatPrice(offer.Currency, offer.PricePerPerson, false),
		OperatorName: operatorName(op),
		TotalNights:  formatTotalNights(offer.TotalNights),
		SplitNights:  formatSplitNights(offer.NightsMakkah, offer.NightsMadinah),
		HotelRating:  hotel,
		Distance:     orNotProvided(offer.DistanceToHaram),
		Occupancy:    formatOccupancy(offer.RoomOccupancy),
		Inclusions:   formatInclusions(offer.Inclusions),
		Notes:        orNotProvided(offer.Notes),
	}
}

// MapPackageToComparison builds a row for pkg. op may be nil.
func MapPackageToComparison(pkg domain.Package, op *domain.OperatorProfile) ComparisonRow {
	return ComparisonRow{
		ID:           pkg.ID,
		Price:        formatPrice(pkg.Currency, pkg.PricePerPerson, pkg.PriceType == domain.PriceFrom),
		OperatorName: operatorName(op),
		TotalNights:  formatTotalNights(pkg.TotalNights),
		SplitNights:  formatSplitNights(pkg.NightsMakkah, pkg.NightsMadinah),
		HotelRating:  formatPackageHotels(pkg.HotelMakkahStars, pkg.HotelMadinahStars),
		Distance:     formatDistanceBands(pkg.DistanceBandMakkah, pkg.DistanceBandMadinah),
		Occupancy:    formatOccupancy(pkg.RoomOccupancyOptions),
		Inclusions:   formatInclusions(pkg.Inclusions),
		Notes:        orNotProvided(pkg.Notes),
	}
}

// HandleOfferSelection toggles id in the current offer selection.
func HandleOfferSelection(current []string, id string) ([]string, error) {
	return toggle(current, id, ErrOfferSelectionLimit)
}

// HandleComparisonSelection toggles id in the current package selection.
func HandleComparisonSelection(current []string, id string) ([]string, error) {
	return toggle(current, id, ErrPackageSelectionLimit)
}

// toggle never modifies current.
func toggle(current []string, id string, limitErr error) ([]string, error) {
	if i := slices.Index(current, id); i >= 0 {
		return slices.Delete(slices.Clone(current), i, i+1), nil
	}
	if len(current) >= MaxSelection {
		return nil, limitErr
	}
	return append(slices.Clone(current), id), nil
}

func formatPrice(currency string, amount float64, from bool) string {
	currency = strings.TrimSpace(currency)
	if currency == "" || amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotProvided
	}
	price := currency + " " + strconv.FormatFloat(amount, 'f', -1, 64)
	if from {
		return "From " + price
	}
	return price
}

func operatorName(op *domain.OperatorProfile) string {
	if op == nil {
		return NotProvided
	}
	return orNotProvided(op.CompanyName)
}

func formatTotalNights(n int) string {
	if n <= 0 {
		return NotProvided
	}
	return fmt.Sprintf("%d nights", n)
}

func formatSplitNights(makkah, madinah int) string {
	if makkah <= 0 && madinah <= 0 {
		return NotProvided
	}
	return fmt.Sprintf("Makkah %d / Madinah %d", max(makkah, 0), max(madinah, 0))
}

func formatPackageHotels(makkah, madinah *int) string {
	known := func(stars *int) bool { return stars != nil && *stars > 0 }
	switch {
	case known(makkah) && known(madinah):
		return fmt.Sprintf("Makkah %d / Madinah %d", *makkah, *madinah)
	case known(makkah):
		return fmt.Sprintf("%d Stars", *makkah)
	case known(madinah):
		return fmt.Sprintf("%d Stars", *madinah)
	default:
		return NotProvided
	}
}

func formatDistanceBands(makkah, madinah domain.DistanceBand) string {
	label := func(b domain.DistanceBand) string {
		if b == "" || b == domain.DistanceUnknown {
			return NotProvided
		}
		return string(b)
	}
	mk, md := label(makkah), label(madinah)
	if mk == NotProvided && md == NotProvided {
		return NotProvided
	}
	return mk + " / " + md
}

func formatOccupancy(o domain.OccupancyOptions) string {
	return joinFlags([]flag{
		{"Single", o.Single},
		{"Double", o.Double},
		{"Triple", o.Triple},
		{"Quad", o.Quad},
	})
}

func formatInclusions(in domain.Inclusions) string {
	return joinFlags([]flag{
		{"Visa", in.Visa},
		{"Flights", in.Flights},
		{"Transfers", in.Transfers},
		{"Meals", in.Meals},
	})
}

type flag struct {
	label string
	on    bool
}

func joinFlags(flags []flag) string {
	var labels []string
	for _, f := range flags {
		if f.on {
			labels = append(labels, f.label)
		}
	}
	if len(labels) == 0 {
		return NotProvided
	}
	return strings.Join(labels, ", ")
}

func orNotProvided(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NotProvided
	}
	return s
}
