package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/compare"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// CreateOffer records an operator's quote. The owner is always the caller: any OperatorID
// in the input is discarded. An open request moves to responded on its first offer.
// Repeat offers from the same operator are kept as revised quotes.
func (m *marketplace) CreateOffer(ctx context.Context, rc domain.RequestContext, in domain.OfferInput) (*domain.Offer, error) {
	if !rc.IsOperator() {
		return nil, domain.ErrUnauthorized
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.RequestID == "" || in.Currency == "" || in.PricePerPerson <= 0 {
		return nil, domain.ErrMissingFields
	}
	if in.TotalNights < 0 || in.NightsMakkah < 0 || in.NightsMadinah < 0 {
		return nil, fmt.Errorf("%w: nights cannot be negative", domain.ErrInvalidInput)
	}
	if in.HotelStars != 0 && (in.HotelStars < 1 || in.HotelStars > domain.MaxHotelStars) {
		return nil, fmt.Errorf("%w: hotel stars must be between 1 and %d", domain.ErrInvalidInput, domain.MaxHotelStars)
	}

	// Any request that is not closed accepts offers, including responded ones.
	req, err := m.store.Requests.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.Status == domain.RequestClosed {
		return nil, fmt.Errorf("%w: request is closed", domain.ErrInvalidInput)
	}

	offer := &domain.Offer{
		ID:              m.newID(),
		RequestID:       req.ID,
		OperatorID:      rc.UserID,
		CreatedAt:       m.now(),
		PricePerPerson:  in.PricePerPerson,
		Currency:        in.Currency,
		TotalNights:     in.TotalNights,
		NightsMakkah:    in.NightsMakkah,
		NightsMadinah:   in.NightsMadinah,
		HotelStars:      in.HotelStars,
		DistanceToHaram: strings.TrimSpace(in.DistanceToHaram),
		RoomOccupancy:   in.RoomOccupancy,
		Inclusions:      in.Inclusions,
		Notes:           in.Notes,
	}

	// The status moves first so a stored offer never sits on an open request. A failed
	// offer write puts the status back.
	firstOffer := req.Status == domain.RequestOpen
	if firstOffer {
		req.Status = domain.RequestResponded
		if err := m.store.Requests.Save(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to mark request responded: %w", err)
		}
	}
	if err := m.store.Offers.Save(ctx, offer); err != nil {
		if firstOffer {
			req.Status = domain.RequestOpen
			if rerr := m.store.Requests.Save(ctx, req); rerr != nil {
				logger.ErrorContext(ctx, "Failed to reopen request after offer write failed", "request_id", req.ID, "error", rerr)
			}
		}
		return nil, fmt.Errorf("failed to save offer: %w", err)
	}

	logger.InfoContext(ctx, "Offer created", "offer_id", offer.ID, "request_id", req.ID)
	c := m.contactsFor(ctx, req.CustomerID, offer.OperatorID)
	m.publish(ctx, events.OfferCreated, events.OfferCreatedEvent{
		OfferID:        offer.ID,
		RequestID:      req.ID,
		OperatorID:     offer.OperatorID,
		CustomerID:     req.CustomerID,
		CustomerEmail:  c.customerEmail,
		CustomerName:   c.customerName,
		OperatorName:   c.operatorName,
		PricePerPerson: offer.PricePerPerson,
		Currency:       offer.Currency,
		CreatedAt:      offer.CreatedAt,
	}, "offer_id", offer.ID)
	if firstOffer {
		m.publish(ctx, events.RequestResponded, events.RequestRespondedEvent{
			RequestID:  req.ID,
			CustomerID: req.CustomerID,
			OfferID:    offer.ID,
		}, "request_id", req.ID)
	}

	return offer, nil
}

// GetOffersForRequest returns the offers on requestID that rc may see. A customer who does
// not own the request gets an empty list rather than an error.
func (m *marketplace) GetOffersForRequest(ctx context.Context, rc domain.RequestContext, requestID string) ([]domain.Offer, error) {
	req, err := m.store.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil {
		return []domain.Offer{}, nil
	}

	offers, err := m.store.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	visible := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if canSeeOffer(rc, &o, req) {
			visible = append(visible, o)
		}
	}
	return visible, nil
}

// GetOffer returns nil for a missing offer or one rc may not see.
func (m *marketplace) GetOffer(ctx context.Context, rc domain.RequestContext, id string) (*domain.Offer, error) {
	offer, err := m.store.Offers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer == nil {
		return nil, nil
	}
	var req *domain.QuoteRequest
	if rc.IsCustomer() {
		if req, err = m.store.Requests.GetByID(ctx, offer.RequestID); err != nil {
			return nil, fmt.Errorf("failed to get request: %w", err)
		}
	}
	if !canSeeOffer(rc, offer, req) {
		return nil, nil
	}
	return offer, nil
}

// canSeeOffer: operators see only their own offers, customers see offers on requests they
// own, admins see all. req may be nil when the parent request is unknown.
func canSeeOffer(rc domain.RequestContext, offer *domain.Offer, req *domain.QuoteRequest) bool {
	switch rc.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleOperator:
		return offer.OperatorID == rc.UserID
	case domain.RoleCustomer:
		return req != nil && req.ID == offer.RequestID && req.CustomerID == rc.UserID
	default:
		return false
	}
}

// CompareOffers maps up to three visible offers on one request to comparison rows, in the
// order the ids were given.
func (m *marketplace) CompareOffers(ctx context.Context, rc domain.RequestContext, requestID string, offerIDs []string) ([]compare.ComparisonRow, error) {
	ids, err := selection(offerIDs, compare.HandleOfferSelection)
	if err != nil {
		return nil, err
	}

	offers, err := m.GetOffersForRequest(ctx, rc, requestID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}

	ops := newOperatorCache(m)
	rows := make([]compare.ComparisonRow, 0, len(ids))
	for _, id := range ids {
		offer, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: offer %s", domain.ErrNotFound, id)
		}
		op, err := ops.get(ctx, offer.OperatorID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, compare.MapOfferToComparison(offer, op))
	}
	return rows, nil
}

// selection replays ids through a toggle helper so duplicates collapse and the size limit
// applies exactly as it does in the interactive picker.
func selection(ids []string, toggle func([]string, string) ([]string, error)) ([]string, error) {
	var picked []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		next, err := toggle(picked, id)
		if err != nil {
			return nil, err
		}
		picked = next
	}
	if len(picked) == 0 {
		return nil, domain.ErrMissingFields
	}
	return picked, nil
}

type operatorCache struct {
	m    *marketplace
	seen map[string]*domain.OperatorProfile
}

func newOperatorCache(m *marketplace) *operatorCache {
	return &operatorCache{m: m, seen: make(map[string]*domain.OperatorProfile)}
}

func (c *operatorCache) get(ctx context.Context, id string) (*domain.OperatorProfile, error) {
	if op, ok := c.seen[id]; ok {
		return op, nil
	}
	op, err := c.m.store.Operators.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	c.seen[id] = op
	return op, nil
}
