package domain

import "time"

type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestResponded RequestStatus = "responded"
	RequestClosed    RequestStatus = "closed"
)

type PilgrimageType string

const (
	PilgrimageUmrah PilgrimageType = "umrah"
	PilgrimageHajj  PilgrimageType = "hajj"
)

func ParsePilgrimageType(s string) (PilgrimageType, bool) {
	switch PilgrimageType(s) {
	case PilgrimageUmrah, PilgrimageHajj:
		return PilgrimageType(s), true
	default:
		return "", false
	}
}

type DateWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type BudgetRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// OccupancyCounts is how many rooms of each type a customer asks for.
type OccupancyCounts struct {
	Single int `json:"single"`
	Double int `json:"double"`
	Triple int `json:"triple"`
	Quad   int `json:"quad"`
}

// OccupancyOptions marks which room types an offer or package covers.
type OccupancyOptions struct {
	Single bool `json:"single"`
	Double bool `json:"double"`
	Triple bool `json:"triple"`
	Quad   bool `json:"quad"`
}

type Inclusions struct {
	Visa      bool `json:"visa"`
	Flights   bool `json:"flights"`
	Transfers bool `json:"transfers"`
	Meals     bool `json:"meals"`
}

type QuoteRequest struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customer_id"`
	Status             RequestStatus   `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	Type               PilgrimageType  `json:"type"`
	Season             string          `json:"season"`
	DateWindow         *DateWindow     `json:"date_window,omitempty"`
	DepartureCity      string          `json:"departure_city,omitempty"`
	TotalNights        int             `json:"total_nights"`
	NightsMakkah       int             `json:"nights_makkah"`
	NightsMadinah      int             `json:"nights_madinah"`
	HotelStars         int             `json:"hotel_stars"`
	DistancePreference string          `json:"distance_preference"`
	BudgetRange        *BudgetRange    `json:"budget_range,omitempty"`
	Occupancy          OccupancyCounts `json:"occupancy"`
	Inclusions         Inclusions      `json:"inclusions"`
	Notes              string          `json:"notes,omitempty"`
}

// RequestInput is what a customer submits from the quote wizard. Identity, owner and
// status are assigned server side.
type RequestInput struct {
	Type               PilgrimageType  `json:"type"`
	Season             string          `json:"season"`
	DateWindow         *DateWindow     `json:"date_window,omitempty"`
	DepartureCity      string          `json:"departure_city,omitempty"`
	TotalNights        int             `json:"total_nights"`
	NightsMakkah       int             `json:"nights_makkah"`
	NightsMadinah      int             `json:"nights_madinah"`
	HotelStars         int             `json:"hotel_stars"`
	DistancePreference string          `json:"distance_preference"`
	BudgetRange        *BudgetRange    `json:"budget_range,omitempty"`
	Occupancy          OccupancyCounts `json:"occupancy"`
	Inclusions         Inclusions      `json:"inclusions"`
	Notes              string          `json:"notes,omitempty"`
}

// Business rules
const (
	MinHotelStars = 3
	MaxHotelStars = 5
)
