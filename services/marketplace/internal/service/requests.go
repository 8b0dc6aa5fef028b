package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

func (m *marketplace) CreateRequest(ctx context.Context, rc domain.RequestContext, in domain.RequestInput) (*domain.QuoteRequest, error) {
	if !rc.IsCustomer() {
		return nil, domain.ErrUnauthorized
	}
	if err := validateRequestInput(&in); err != nil {
		return nil, err
	}

	req := &domain.QuoteRequest{
		ID:                 m.newID(),
		CustomerID:         rc.UserID,
		Status:             domain.RequestOpen,
		CreatedAt:          m.now(),
		Type:               in.Type,
		Season:             in.Season,
		DateWindow:         in.DateWindow,
		DepartureCity:      in.DepartureCity,
		TotalNights:        in.TotalNights,
		NightsMakkah:       in.NightsMakkah,
		NightsMadinah:      in.NightsMadinah,
		HotelStars:         in.HotelStars,
		DistancePreference: in.DistancePreference,
		BudgetRange:        in.BudgetRange,
		Occupancy:          in.Occupancy,
		Inclusions:         in.Inclusions,
		Notes:              in.Notes,
	}
	if err := m.store.Requests.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}

	logger.InfoContext(ctx, "Quote request created", "request_id", req.ID, "type", req.Type)
	m.publish(ctx, events.RequestCreated, events.RequestCreatedEvent{
		RequestID:  req.ID,
		CustomerID: req.CustomerID,
		Type:       string(req.Type),
		Season:     req.Season,
		CreatedAt:  req.CreatedAt,
	}, "request_id", req.ID)

	return req, nil
}

// GetRequests returns the requests rc may see, oldest first.
func (m *marketplace) GetRequests(ctx context.Context, rc domain.RequestContext) ([]domain.QuoteRequest, error) {
	all, err := m.store.Requests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	bidOn, err := m.requestsBidOn(ctx, rc)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.QuoteRequest, 0, len(all))
	for _, req := range all {
		if canSeeRequest(rc, &req, bidOn[req.ID]) {
			visible = append(visible, req)
		}
	}
	return visible, nil
}

// GetRequestByID returns nil for a request that is missing or hidden from rc, so callers
// cannot tell the two apart.
func (m *marketplace) GetRequestByID(ctx context.Context, rc domain.RequestContext, id string) (*domain.QuoteRequest, error) {
	req, err := m.store.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil {
		return nil, nil
	}
	visible, err := m.requestVisible(ctx, rc, req)
	if err != nil || !visible {
		return nil, err
	}
	return req, nil
}

func (m *marketplace) requestVisible(ctx context.Context, rc domain.RequestContext, req *domain.QuoteRequest) (bool, error) {
	hasOwnOffer := false
	if rc.IsOperator() && req.Status != domain.RequestOpen {
		bidOn, err := m.requestsBidOn(ctx, rc)
		if err != nil {
			return false, err
		}
		hasOwnOffer = bidOn[req.ID]
	}
	return canSeeRequest(rc, req, hasOwnOffer), nil
}

// requestsBidOn is the set of request ids rc has offered on. It is empty for non-operators.
func (m *marketplace) requestsBidOn(ctx context.Context, rc domain.RequestContext) (map[string]bool, error) {
	if !rc.IsOperator() {
		return nil, nil
	}
	offers, err := m.store.Offers.ListByOperator(ctx, rc.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operator offers: %w", err)
	}
	ids := make(map[string]bool, len(offers))
	for _, o := range offers {
		ids[o.RequestID] = true
	}
	return ids, nil
}

// canSeeRequest is the single visibility rule for quote requests. Customers see their own,
// operators see open requests plus any they have offered on, admins see everything.
func canSeeRequest(rc domain.RequestContext, req *domain.QuoteRequest, hasOwnOffer bool) bool {
	switch rc.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCustomer:
		return req.CustomerID == rc.UserID
	case domain.RoleOperator:
		return req.Status == domain.RequestOpen || hasOwnOffer
	default:
		return false
	}
}

func validateRequestInput(in *domain.RequestInput) error {
	in.Season = strings.TrimSpace(in.Season)
	if in.Type == "" {
		return domain.ErrMissingFields
	}
	if _, ok := domain.ParsePilgrimageType(string(in.Type)); !ok {
		return fmt.Errorf("%w: unknown pilgrimage type %q", domain.ErrInvalidInput, in.Type)
	}
	if in.TotalNights < 0 || in.NightsMakkah < 0 || in.NightsMadinah < 0 {
		return fmt.Errorf("%w: nights cannot be negative", domain.ErrInvalidInput)
	}
	if in.HotelStars != 0 && (in.HotelStars < domain.MinHotelStars || in.HotelStars > domain.MaxHotelStars) {
		return fmt.Errorf("%w: hotel stars must be between %d and %d", domain.ErrInvalidInput, domain.MinHotelStars, domain.MaxHotelStars)
	}
	if b := in.BudgetRange; b != nil && (b.Min < 0 || (b.Max > 0 && b.Min > b.Max)) {
		return fmt.Errorf("%w: budget range is inverted", domain.ErrInvalidInput)
	}
	o := in.Occupancy
	if o.Single < 0 || o.Double < 0 || o.Triple < 0 || o.Quad < 0 {
		return fmt.Errorf("%w: room counts cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}
