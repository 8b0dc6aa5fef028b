package domain

import "time"

type BookingIntentStatus string

const (
	BookingIntentPending   BookingIntentStatus = "pending"
	BookingIntentContacted BookingIntentStatus = "contacted"
	BookingIntentClosed    BookingIntentStatus = "closed"
)

// BookingIntent records that a customer wants to proceed with an offer. It is not a
// confirmed booking and is never updated by the marketplace core.
type BookingIntent struct {
	ID         string              `json:"id"`
	OfferID    string              `json:"offer_id"`
	CustomerID string              `json:"customer_id"`
	OperatorID string              `json:"operator_id"`
	Status     BookingIntentStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Notes      string              `json:"notes,omitempty"`
}

type BookingIntentInput struct {
	OfferID string `json:"offer_id"`
	Notes   string `json:"notes,omitempty"`
}
