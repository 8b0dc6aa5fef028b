package domain

import "time"

type PackageStatus string

const (
	PackageDraft     PackageStatus = "draft"
	PackagePublished PackageStatus = "published"
)

func ParsePackageStatus(s string) (PackageStatus, bool) {
	switch PackageStatus(s) {
	case PackageDraft, PackagePublished:
		return PackageStatus(s), true
	default:
		return "", false
	}
}

type PriceType string

const (
	PriceExact PriceType = "exact"
	PriceFrom  PriceType = "from"
)

type DistanceBand string

const (
	DistanceNear    DistanceBand = "near"
	DistanceMedium  DistanceBand = "medium"
	DistanceFar     DistanceBand = "far"
	DistanceUnknown DistanceBand = "unknown"
)

func ParseDistanceBand(s string) (DistanceBand, bool) {
	switch DistanceBand(s) {
	case DistanceNear, DistanceMedium, DistanceFar, DistanceUnknown:
		return DistanceBand(s), true
	default:
		return "", false
	}
}

type Package struct {
	ID                   string           `json:"id"`
	OperatorID           string           `json:"operator_id"`
	Title                string           `json:"title"`
	Slug                 string           `json:"slug"`
	Status               PackageStatus    `json:"status"`
	PilgrimageType       PilgrimageType   `json:"pilgrimage_type"`
	SeasonLabel          string           `json:"season_label,omitempty"`
	PriceType            PriceType        `json:"price_type"`
	PricePerPerson       float64          `json:"price_per_person"`
	Currency             string           `json:"currency"`
	TotalNights          int              `json:"total_nights"`
	NightsMakkah         int              `json:"nights_makkah"`
	NightsMadinah        int              `json:"nights_madinah"`
	HotelMakkahStars     *int             `json:"hotel_makkah_stars,omitempty"`
	HotelMadinahStars    *int             `json:"hotel_madinah_stars,omitempty"`
	DistanceBandMakkah   DistanceBand     `json:"distance_band_makkah"`
	DistanceBandMadinah  DistanceBand     `json:"distance_band_madinah"`
	RoomOccupancyOptions OccupancyOptions `json:"room_occupancy_options"`
	Inclusions           Inclusions       `json:"inclusions"`
	Notes                string           `json:"notes,omitempty"`
	Version              int              `json:"version"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (p *Package) IsPublished() bool {
	return p.Status == PackagePublished
}

func (p *Package) IsOwnedBy(userID string) bool {
	return p.OperatorID == userID
}

// PackageInput creates a package. Slug, owner and identity are assigned server side.
type PackageInput struct {
	Title                string           `json:"title"`
	Status               PackageStatus    `json:"status"`
	PilgrimageType       PilgrimageType   `json:"pilgrimage_type"`
	SeasonLabel          string           `json:"season_label,omitempty"`
	PriceType            PriceType        `json:"price_type"`
	PricePerPerson       float64          `json:"price_per_person"`
	Currency             string           `json:"currency"`
	TotalNights          int              `json:"total_nights"`
	NightsMakkah         int              `json:"nights_makkah"`
	NightsMadinah        int              `json:"nights_madinah"`
	HotelMakkahStars     *int             `json:"hotel_makkah_stars,omitempty"`
	HotelMadinahStars    *int             `json:"hotel_madinah_stars,omitempty"`
	DistanceBandMakkah   DistanceBand     `json:"distance_band_makkah"`
	DistanceBandMadinah  DistanceBand     `json:"distance_band_madinah"`
	RoomOccupancyOptions OccupancyOptions `json:"room_occupancy_options"`
	Inclusions           Inclusions       `json:"inclusions"`
	Notes                string           `json:"notes,omitempty"`
}

// PackagePatch lists every field an owner may change. ID, OperatorID, Slug and timestamps
// have no counterpart here, so no payload can reach them.
type PackagePatch struct {
	Title                *string           `json:"title,omitempty"`
	Status               *PackageStatus    `json:"status,omitempty"`
	PilgrimageType       *PilgrimageType   `json:"pilgrimage_type,omitempty"`
	SeasonLabel          *string           `json:"season_label,omitempty"`
	PriceType            *PriceType        `json:"price_type,omitempty"`
	PricePerPerson       *float64          `json:"price_per_person,omitempty"`
	Currency             *string           `json:"currency,omitempty"`
	TotalNights          *int              `json:"total_nights,omitempty"`
	NightsMakkah         *int              `json:"nights_makkah,omitempty"`
	NightsMadinah        *int              `json:"nights_madinah,omitempty"`
	HotelMakkahStars     *int              `json:"hotel_makkah_stars,omitempty"`
	HotelMadinahStars    *int              `json:"hotel_madinah_stars,omitempty"`
	DistanceBandMakkah   *DistanceBand     `json:"distance_band_makkah,omitempty"`
	DistanceBandMadinah  *DistanceBand     `json:"distance_band_madinah,omitempty"`
	RoomOccupancyOptions *OccupancyOptions `json:"room_occupancy_options,omitempty"`
	Inclusions           *Inclusions       `json:"inclusions,omitempty"`
	Notes                *string           `json:"notes,omitempty"`

	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int `json:"expected_version,omitempty"`
}

// Apply copies the set fields onto p and reports which ones changed.
func (patch PackagePatch) Apply(p *Package) []string {
	var changes []string

	if patch.Title != nil && *patch.Title != p.Title {
		p.Title = *patch.Title
		changes = append(changes, "title")
	}
	if patch.Status != nil && *patch.Status != p.Status {
		p.Status = *patch.Status
		changes = append(changes, "status")
	}
	if patch.PilgrimageType != nil && *patch.PilgrimageType != p.PilgrimageType {
		p.PilgrimageType = *patch.PilgrimageType
		changes = append(changes, "pilgrimage_type")
	}
	if patch.SeasonLabel != nil && *patch.SeasonLabel != p.SeasonLabel {
		p.SeasonLabel = *patch.SeasonLabel
		changes = append(changes, "season_label")
	}
	if patch.PriceType != nil && *patch.PriceType != p.PriceType {
		p.PriceType = *patch.PriceType
		changes = append(changes, "price_type")
	}
	if patch.PricePerPerson != nil && *patch.PricePerPerson != p.PricePerPerson {
		p.PricePerPerson = *patch.PricePerPerson
		changes = append(changes, "price_per_person")
	}
	if patch.Currency != nil && *patch.Currency != p.Currency {
		p.Currency = *patch.Currency
		changes = append(changes, "currency")
	}
	if patch.TotalNights != nil && *patch.TotalNights != p.TotalNights {
		p.TotalNights = *patch.TotalNights
		changes = append(changes, "total_nights")
	}
	if patch.NightsMakkah != nil && *patch.NightsMakkah != p.NightsMakkah {
		p.NightsMakkah = *patch.NightsMakkah
		changes = append(changes, "nights_makkah")
	}
	if patch.NightsMadinah != nil && *patch.NightsMadinah != p.NightsMadinah {
		p.NightsMadinah = *patch.NightsMadinah
		changes = append(changes, "nights_madinah")
	}
	if patch.HotelMakkahStars != nil && !sameStars(p.HotelMakkahStars, *patch.HotelMakkahStars) {
		v := *patch.HotelMakkahStars
		p.HotelMakkahStars = &v
		changes = append(changes, "hotel_makkah_stars")
	}
	if patch.HotelMadinahStars != nil && !sameStars(p.HotelMadinahStars, *patch.HotelMadinahStars) {
		v := *patch.HotelMadinahStars
		p.HotelMadinahStars = &v
		changes = append(changes, "hotel_madinah_stars")
	}
	if patch.DistanceBandMakkah != nil && *patch.DistanceBandMakkah != p.DistanceBandMakkah {
		p.DistanceBandMakkah = *patch.DistanceBandMakkah
		changes = append(changes, "distance_band_makkah")
	}
	if patch.DistanceBandMadinah != nil && *patch.DistanceBandMadinah != p.DistanceBandMadinah {
		p.DistanceBandMadinah = *patch.DistanceBandMadinah
		changes = append(changes, "distance_band_madinah")
	}
	if patch.RoomOccupancyOptions != nil && *patch.RoomOccupancyOptions != p.RoomOccupancyOptions {
		p.RoomOccupancyOptions = *patch.RoomOccupancyOptions
		changes = append(changes, "room_occupancy_options")
	}
	if patch.Inclusions != nil && *patch.Inclusions != p.Inclusions {
		p.Inclusions = *patch.Inclusions
		changes = append(changes, "inclusions")
	}
	if patch.Notes != nil && *patch.Notes != p.Notes {
		p.Notes = *patch.Notes
		changes = append(changes, "notes")
	}

	return changes
}

func sameStars(current *int, next int) bool {
	return current != nil && *current == next
}
