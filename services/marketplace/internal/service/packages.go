package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/pilgrim-quotes/internal/utils"
	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/compare"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

func (m *marketplace) CreatePackage(ctx context.Context, rc domain.RequestContext, in domain.PackageInput) (*domain.Package, error) {
	if !rc.IsOperator() {
		return nil, domain.ErrUnauthorized
	}
	in.Title = utils.NormalizeString(in.Title)
	if in.Title == "" || in.PricePerPerson <= 0 {
		return nil, domain.ErrMissingFields
	}

	now := m.now()
	pkg := &domain.Package{
		ID:                   m.newID(),
		OperatorID:           rc.UserID,
		Title:                in.Title,
		Slug:                 utils.UniqueSlug(in.Title),
		Status:               defaultTo(in.Status, domain.PackageDraft),
		PilgrimageType:       defaultTo(in.PilgrimageType, domain.PilgrimageUmrah),
		SeasonLabel:          in.SeasonLabel,
		PriceType:            defaultTo(in.PriceType, domain.PriceExact),
		PricePerPerson:       in.PricePerPerson,
		Currency:             strings.ToUpper(strings.TrimSpace(in.Currency)),
		TotalNights:          in.TotalNights,
		NightsMakkah:         in.NightsMakkah,
		NightsMadinah:        in.NightsMadinah,
		HotelMakkahStars:     copyStars(in.HotelMakkahStars),
		HotelMadinahStars:    copyStars(in.HotelMadinahStars),
		DistanceBandMakkah:   defaultTo(in.DistanceBandMakkah, domain.DistanceUnknown),
		DistanceBandMadinah:  defaultTo(in.DistanceBandMadinah, domain.DistanceUnknown),
		RoomOccupancyOptions: in.RoomOccupancyOptions,
		Inclusions:           in.Inclusions,
		Notes:                in.Notes,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := validatePackage(pkg); err != nil {
		return nil, err
	}
	if err := m.store.Packages.Save(ctx, pkg); err != nil {
		return nil, fmt.Errorf("failed to save package: %w", err)
	}

	logger.InfoContext(ctx, "Package created", "package_id", pkg.ID, "slug", pkg.Slug)
	m.publish(ctx, events.PackageCreated, events.PackageEvent{
		PackageID:  pkg.ID,
		OperatorID: pkg.OperatorID,
		Slug:       pkg.Slug,
		Status:     string(pkg.Status),
		Version:    pkg.Version,
	}, "package_id", pkg.ID)

	return pkg, nil
}

// ListPackages is the public catalogue: published packages only, whoever asks.
func (m *marketplace) ListPackages(ctx context.Context) ([]domain.Package, error) {
	return m.filterPackages(ctx, func(p *domain.Package) bool { return p.IsPublished() })
}

func (m *marketplace) GetPackageBySlug(ctx context.Context, slug string) (*domain.Package, error) {
	pkg, err := m.store.Packages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg == nil || !pkg.IsPublished() {
		return nil, nil
	}
	return pkg, nil
}

// GetPackageByID returns drafts only to their owner and admins.
func (m *marketplace) GetPackageByID(ctx context.Context, rc domain.RequestContext, id string) (*domain.Package, error) {
	pkg, err := m.store.Packages.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg == nil {
		return nil, nil
	}
	if pkg.IsPublished() || rc.IsAdmin() || (rc.IsOperator() && pkg.IsOwnedBy(rc.UserID)) {
		return pkg, nil
	}
	return nil, nil
}

func (m *marketplace) GetOperatorPackages(ctx context.Context, rc domain.RequestContext) ([]domain.Package, error) {
	switch {
	case rc.IsAdmin():
		return m.filterPackages(ctx, nil)
	case rc.IsOperator():
		return m.filterPackages(ctx, func(p *domain.Package) bool { return p.IsOwnedBy(rc.UserID) })
	default:
		return nil, domain.ErrUnauthorized
	}
}

func (m *marketplace) filterPackages(ctx context.Context, keep func(*domain.Package) bool) ([]domain.Package, error) {
	all, err := m.store.Packages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	out := make([]domain.Package, 0, len(all))
	for _, p := range all {
		if keep == nil || keep(&p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdatePackage applies patch for the owning operator. ID, OperatorID and Slug cannot be
// patched. The write is conditional on the version read here, or on patch.ExpectedVersion
// when the caller supplies one.
func (m *marketplace) UpdatePackage(ctx context.Context, rc domain.RequestContext, id string, patch domain.PackagePatch) (*domain.Package, error) {
	existing, err := m.store.Packages.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	if !rc.IsOperator() || !existing.IsOwnedBy(rc.UserID) {
		return nil, domain.ErrUnauthorized
	}

	expected := existing.Version
	if patch.ExpectedVersion != nil {
		if *patch.ExpectedVersion != existing.Version {
			return nil, domain.ErrVersionConflict
		}
		expected = *patch.ExpectedVersion
	}

	if patch.Title != nil {
		title := utils.NormalizeString(*patch.Title)
		patch.Title = &title
	}
	if patch.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		patch.Currency = &currency
	}

	updated := *existing
	changes := patch.Apply(&updated)
	if len(changes) == 0 {
		return existing, nil
	}
	if updated.Title == "" || updated.PricePerPerson <= 0 {
		return nil, domain.ErrMissingFields
	}
	if err := validatePackage(&updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = m.now()

	if err := m.store.Packages.Update(ctx, &updated, expected); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	logger.InfoContext(ctx, "Package updated", "package_id", id, "changes", changes, "version", updated.Version)
	m.publish(ctx, events.PackageUpdated, events.PackageEvent{
		PackageID:  updated.ID,
		OperatorID: updated.OperatorID,
		Slug:       updated.Slug,
		Status:     string(updated.Status),
		Version:    updated.Version,
		Changes:    changes,
	}, "package_id", id)

	return &updated, nil
}

// DeletePackage is a no-op for an unknown id.
func (m *marketplace) DeletePackage(ctx context.Context, rc domain.RequestContext, id string) error {
	existing, err := m.store.Packages.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}
	if existing == nil {
		return nil
	}
	if !rc.IsOperator() || !existing.IsOwnedBy(rc.UserID) {
		return domain.ErrUnauthorized
	}
	if err := m.store.Packages.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}

	logger.InfoContext(ctx, "Package deleted", "package_id", id)
	m.publish(ctx, events.PackageDeleted, events.PackageEvent{
		PackageID:  existing.ID,
		OperatorID: existing.OperatorID,
		Slug:       existing.Slug,
	}, "package_id", id)
	return nil
}

// ComparePackages maps up to three published packages to comparison rows in request order.
func (m *marketplace) ComparePackages(ctx context.Context, ids []string) ([]compare.ComparisonRow, error) {
	picked, err := selection(ids, compare.HandleComparisonSelection)
	if err != nil {
		return nil, err
	}

	ops := newOperatorCache(m)
	rows := make([]compare.ComparisonRow, 0, len(picked))
	for _, id := range picked {
		pkg, err := m.store.Packages.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get package: %w", err)
		}
		if pkg == nil || !pkg.IsPublished() {
			return nil, fmt.Errorf("%w: package %s", domain.ErrNotFound, id)
		}
		op, err := ops.get(ctx, pkg.OperatorID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, compare.MapPackageToComparison(*pkg, op))
	}
	return rows, nil
}

func validatePackage(p *domain.Package) error {
	if _, ok := domain.ParsePackageStatus(string(p.Status)); !ok {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, p.Status)
	}
	if _, ok := domain.ParsePilgrimageType(string(p.PilgrimageType)); !ok {
		return fmt.Errorf("%w: unknown pilgrimage type %q", domain.ErrInvalidInput, p.PilgrimageType)
	}
	if p.PriceType != domain.PriceExact && p.PriceType != domain.PriceFrom {
		return fmt.Errorf("%w: unknown price type %q", domain.ErrInvalidInput, p.PriceType)
	}
	for _, band := range []domain.DistanceBand{p.DistanceBandMakkah, p.DistanceBandMadinah} {
		if _, ok := domain.ParseDistanceBand(string(band)); !ok {
			return fmt.Errorf("%w: unknown distance band %q", domain.ErrInvalidInput, band)
		}
	}
	for _, stars := range []*int{p.HotelMakkahStars, p.HotelMadinahStars} {
		if stars != nil && (*stars < 1 || *stars > domain.MaxHotelStars) {
			return fmt.Errorf("%w: hotel stars must be between 1 and %d", domain.ErrInvalidInput, domain.MaxHotelStars)
		}
	}
	if p.TotalNights < 0 || p.NightsMakkah < 0 || p.NightsMadinah < 0 {
		return fmt.Errorf("%w: nights cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}

func defaultTo[T ~string](v, fallback T) T {
	if v == "" {
		return fallback
	}
	return v
}

func copyStars(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
