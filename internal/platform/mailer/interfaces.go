package mailer

import "context"

// Sender delivers one message and returns the provider's message id when it has one.
type Sender interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
}

// Service is what the notify worker talks to.
type Service interface {
	Sender
	SendOfferNotification(ctx context.Context, n OfferNotice) error
	SendBookingIntentNotification(ctx context.Context, n BookingIntentNotice) error
}

// OfferNotice tells a customer that an operator has quoted on their request.
type OfferNotice struct {
	CustomerEmail  string
	CustomerName   string
	OperatorName   string
	RequestID      string
	OfferID        string
	PricePerPerson float64
	Currency       string
}

// BookingIntentNotice tells an operator that a customer wants to book one of their offers.
type BookingIntentNotice struct {
	OperatorEmail   string
	OperatorName    string
	CustomerName    string
	CustomerEmail   string
	OfferID         string
	BookingIntentID string
	Notes           string
}
