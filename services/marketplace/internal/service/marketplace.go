package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/compare"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/repository"
)

// Marketplace is the authorization and query layer over the record store. Every
// caller-scoped operation takes the caller's RequestContext explicitly.
type Marketplace interface {
	CreateRequest(ctx context.Context, rc domain.RequestContext, in domain.RequestInput) (*domain.QuoteRequest, error)
	GetRequests(ctx context.Context, rc domain.RequestContext) ([]domain.QuoteRequest, error)
	GetRequestByID(ctx context.Context, rc domain.RequestContext, id string) (*domain.QuoteRequest, error)

	CreateOffer(ctx context.Context, rc domain.RequestContext, in domain.OfferInput) (*domain.Offer, error)
	GetOffersForRequest(ctx context.Context, rc domain.RequestContext, requestID string) ([]domain.Offer, error)
	GetOffer(ctx context.Context, rc domain.RequestContext, id string) (*domain.Offer, error)
	CompareOffers(ctx context.Context, rc domain.RequestContext, requestID string, offerIDs []string) ([]compare.ComparisonRow, error)

	CreateBookingIntent(ctx context.Context, rc domain.RequestContext, in domain.BookingIntentInput) (*domain.BookingIntent, error)
	GetBookingIntents(ctx context.Context, rc domain.RequestContext) ([]domain.BookingIntent, error)

	CreatePackage(ctx context.Context, rc domain.RequestContext, in domain.PackageInput) (*domain.Package, error)
	ListPackages(ctx context.Context) ([]domain.Package, error)
	GetPackageBySlug(ctx context.Context, slug string) (*domain.Package, error)
	GetPackageByID(ctx context.Context, rc domain.RequestContext, id string) (*domain.Package, error)
	GetOperatorPackages(ctx context.Context, rc domain.RequestContext) ([]domain.Package, error)
	UpdatePackage(ctx context.Context, rc domain.RequestContext, id string, patch domain.PackagePatch) (*domain.Package, error)
	DeletePackage(ctx context.Context, rc domain.RequestContext, id string) error
	ComparePackages(ctx context.Context, ids []string) ([]compare.ComparisonRow, error)

	ListOperators(ctx context.Context) ([]domain.OperatorProfile, error)
	GetOperator(ctx context.Context, id string) (*domain.OperatorProfile, error)

	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type marketplace struct {
	store    *repository.Store
	eventBus events.EventBus
	now      func() time.Time
	newID    func() string
}

type Option func(*marketplace)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *marketplace) { m.now = now }
}

// WithIDGenerator replaces the random UUID generator for new records.
func WithIDGenerator(newID func() string) Option {
	return func(m *marketplace) { m.newID = newID }
}

func NewMarketplace(store *repository.Store, eventBus events.EventBus, opts ...Option) Marketplace {
	if eventBus == nil {
		eventBus = events.NopEventBus{}
	}
	m := &marketplace{
		store:    store,
		eventBus: eventBus,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *marketplace) publish(ctx context.Context, subject string, payload any, attrs ...any) {
	if err := m.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", append([]any{"subject", subject, "error", err}, attrs...)...)
	}
}

// contacts looks up the notification details for an event. Lookup failures only cost the
// event its contact fields.
type contacts struct {
	customerName  string
	customerEmail string
	operatorName  string
	operatorEmail string
}

func (m *marketplace) contactsFor(ctx context.Context, customerID, operatorID string) contacts {
	var c contacts
	if u, err := m.store.Users.GetByID(ctx, customerID); err != nil {
		logger.WarnContext(ctx, "Customer lookup failed", "customer_id", customerID, "error", err)
	} else if u != nil {
		c.customerName, c.customerEmail = u.Name, u.Email
	}
	if op, err := m.store.Operators.GetByID(ctx, operatorID); err != nil {
		logger.WarnContext(ctx, "Operator lookup failed", "operator_id", operatorID, "error", err)
	} else if op != nil {
		c.operatorName, c.operatorEmail = op.CompanyName, op.ContactEmail
	}
	return c
}
