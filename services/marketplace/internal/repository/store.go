package repository

import (
	"cmp"
	"context"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// Every lookup returns (nil, nil) when the record does not exist. Save inserts or
// replaces by id on every backend.

type RequestRepository interface {
	List(ctx context.Context) ([]domain.QuoteRequest, error)
	GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error)
	Save(ctx context.Context, req *domain.QuoteRequest) error
}

type OfferRepository interface {
	List(ctx context.Context) ([]domain.Offer, error)
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.Offer, error)
	ListByOperator(ctx context.Context, operatorID string) ([]domain.Offer, error)
	Save(ctx context.Context, offer *domain.Offer) error
}

type PackageRepository interface {
	List(ctx context.Context) ([]domain.Package, error)
	GetByID(ctx context.Context, id string) (*domain.Package, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Package, error)
	Save(ctx context.Context, pkg *domain.Package) error
	// Update replaces a stored package only if its version still equals expectedVersion,
	// and bumps pkg.Version on success. It returns domain.ErrNotFound or
	// domain.ErrVersionConflict otherwise.
	Update(ctx context.Context, pkg *domain.Package, expectedVersion int) error
	Delete(ctx context.Context, id string) error
}

type BookingIntentRepository interface {
	List(ctx context.Context) ([]domain.BookingIntent, error)
	Save(ctx context.Context, intent *domain.BookingIntent) error
}

type OperatorRepository interface {
	List(ctx context.Context) ([]domain.OperatorProfile, error)
	GetByID(ctx context.Context, id string) (*domain.OperatorProfile, error)
	Save(ctx context.Context, op *domain.OperatorProfile) error
}

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

// Store groups the record collections the marketplace is built on.
type Store struct {
	Requests       RequestRepository
	Offers         OfferRepository
	Packages       PackageRepository
	BookingIntents BookingIntentRepository
	Operators      OperatorRepository
	Users          UserRepository
}

// Listing order is shared by every backend: oldest first, ties broken by id.

func compareRequests(a, b domain.QuoteRequest) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func compareOffers(a, b domain.Offer) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func comparePackages(a, b domain.Package) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func compareIntents(a, b domain.BookingIntent) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func compareOperators(a, b domain.OperatorProfile) int {
	return cmp.Compare(a.ID, b.ID)
}

func compareUsers(a, b domain.User) int {
	return cmp.Compare(a.ID, b.ID)
}
