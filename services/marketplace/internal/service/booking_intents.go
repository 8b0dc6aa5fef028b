package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// CreateBookingIntent records that the calling customer wants to go ahead with an offer on
// one of their requests. The operator is taken from the offer.
func (m *marketplace) CreateBookingIntent(ctx context.Context, rc domain.RequestContext, in domain.BookingIntentInput) (*domain.BookingIntent, error) {
	if !rc.IsCustomer() {
		return nil, domain.ErrUnauthorized
	}
	if in.OfferID == "" {
		return nil, domain.ErrMissingFields
	}

	offer, err := m.GetOffer(ctx, rc, in.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.ErrNotFound
	}

	now := m.now()
	intent := &domain.BookingIntent{
		ID:         m.newID(),
		OfferID:    offer.ID,
		CustomerID: rc.UserID,
		OperatorID: offer.OperatorID,
		Status:     domain.BookingIntentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Notes:      in.Notes,
	}
	if err := m.store.BookingIntents.Save(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to save booking intent: %w", err)
	}

	logger.InfoContext(ctx, "Booking intent created", "booking_intent_id", intent.ID, "offer_id", offer.ID)
	c := m.contactsFor(ctx, intent.CustomerID, intent.OperatorID)
	m.publish(ctx, events.BookingIntentCreated, events.BookingIntentCreatedEvent{
		BookingIntentID: intent.ID,
		OfferID:         intent.OfferID,
		CustomerID:      intent.CustomerID,
		CustomerName:    c.customerName,
		CustomerEmail:   c.customerEmail,
		OperatorID:      intent.OperatorID,
		OperatorEmail:   c.operatorEmail,
		OperatorName:    c.operatorName,
		Notes:           intent.Notes,
		CreatedAt:       intent.CreatedAt,
	}, "booking_intent_id", intent.ID)

	return intent, nil
}

func (m *marketplace) GetBookingIntents(ctx context.Context, rc domain.RequestContext) ([]domain.BookingIntent, error) {
	all, err := m.store.BookingIntents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking intents: %w", err)
	}

	visible := make([]domain.BookingIntent, 0, len(all))
	for _, bi := range all {
		switch {
		case rc.IsAdmin(),
			rc.IsCustomer() && bi.CustomerID == rc.UserID,
			rc.IsOperator() && bi.OperatorID == rc.UserID:
			visible = append(visible, bi)
		}
	}
	return visible, nil
}
