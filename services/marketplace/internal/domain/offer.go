package domain

import "time"

type Offer struct {
	ID              string           `json:"id"`
	RequestID       string           `json:"request_id"`
	OperatorID      string           `json:"operator_id"`
	CreatedAt       time.Time        `json:"created_at"`
	PricePerPerson  float64          `json:"price_per_person"`
	Currency        string           `json:"currency"`
	TotalNights     int              `json:"total_nights"`
	NightsMakkah    int              `json:"nights_makkah"`
	NightsMadinah   int              `json:"nights_madinah"`
	HotelStars      int              `json:"hotel_stars"`
	DistanceToHaram string           `json:"distance_to_haram,omitempty"`
	RoomOccupancy   OccupancyOptions `json:"room_occupancy"`
	Inclusions      Inclusions       `json:"inclusions"`
	Notes           string           `json:"notes,omitempty"`
}

// OfferInput is an operator's quote. OperatorID is accepted so clients can send whole
// records, but it is always replaced by the caller's identity.
type OfferInput struct {
	RequestID       string           `json:"request_id"`
	OperatorID      string           `json:"operator_id,omitempty"`
	PricePerPerson  float64          `json:"price_per_person"`
	Currency        string           `json:"currency"`
	TotalNights     int              `json:"total_nights"`
	NightsMakkah    int              `json:"nights_makkah"`
	NightsMadinah   int              `json:"nights_madinah"`
	HotelStars      int              `json:"hotel_stars"`
	DistanceToHaram string           `json:"distance_to_haram,omitempty"`
	RoomOccupancy   OccupancyOptions `json:"room_occupancy"`
	Inclusions      Inclusions       `json:"inclusions"`
	Notes           string           `json:"notes,omitempty"`
}
