package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

var seedTime = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

func SeedOperators() []domain.OperatorProfile {
	return []domain.OperatorProfile{
		{
			ID:                 "op-1",
			CompanyName:        "Al-Hidayah Travel",
			VerificationStatus: domain.VerificationVerified,
			ContactEmail:       "bookings@alhidayah.example",
			ContactPhone:       "+44 20 7946 0101",
			Branding:           &domain.Branding{PrimaryColor: "#0f766e"},
		},
		{
			ID:                 "op-2",
			CompanyName:        "Noor Pilgrimages",
			VerificationStatus: domain.VerificationVerified,
			ContactEmail:       "hello@noor.example",
			ContactPhone:       "+44 161 496 0202",
		},
		{
			ID:                 "op-3",
			CompanyName:        "Safa Marwa Tours",
			VerificationStatus: domain.VerificationPending,
			ContactEmail:       "info@safamarwa.example",
		},
	}
}

func SeedUsers() []domain.User {
	return []domain.User{
		{ID: "admin-1", Email: "admin@pilgrim.example", Role: domain.RoleAdmin, Name: "Marketplace Admin"},
		{ID: "cust-1", Email: "aisha@example.com", Role: domain.RoleCustomer, Name: "Aisha Rahman"},
		{ID: "cust-2", Email: "yusuf@example.com", Role: domain.RoleCustomer, Name: "Yusuf Khan"},
		{ID: "op-1", Email: "bookings@alhidayah.example", Role: domain.RoleOperator, Name: "Al-Hidayah Travel"},
		{ID: "op-2", Email: "hello@noor.example", Role: domain.RoleOperator, Name: "Noor Pilgrimages"},
		{ID: "op-3", Email: "info@safamarwa.example", Role: domain.RoleOperator, Name: "Safa Marwa Tours"},
	}
}

func SeedPackages() []domain.Package {
	makkah, madinah := 5, 4
	return []domain.Package{
		{
			ID:                   "pkg-sample-1",
			OperatorID:           "op-1",
			Title:                "Ramadan Umrah Premium",
			Slug:                 "ramadan-umrah-premium",
			Status:               domain.PackagePublished,
			PilgrimageType:       domain.PilgrimageUmrah,
			SeasonLabel:          "Ramadan",
			PriceType:            domain.PriceFrom,
			PricePerPerson:       1899,
			Currency:             "GBP",
			TotalNights:          10,
			NightsMakkah:         6,
			NightsMadinah:        4,
			HotelMakkahStars:     &makkah,
			HotelMadinahStars:    &madinah,
			DistanceBandMakkah:   domain.DistanceNear,
			DistanceBandMadinah:  domain.DistanceMedium,
			RoomOccupancyOptions: domain.OccupancyOptions{Double: true, Triple: true, Quad: true},
			Inclusions:           domain.Inclusions{Visa: true, Flights: true, Transfers: true},
			Notes:                "Last ten nights available on request.",
			Version:              1,
			CreatedAt:            seedTime,
			UpdatedAt:            seedTime,
		},
	}
}

// SeedIfEmpty fills every empty seeded collection with the fixed fixtures. Collections that
// already hold data are left alone.
func SeedIfEmpty(ctx context.Context, s *Store) error {
	operators, err := s.Operators.List(ctx)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}
	if len(operators) == 0 {
		for _, op := range SeedOperators() {
			if err := s.Operators.Save(ctx, &op); err != nil {
				return fmt.Errorf("seed operator %s: %w", op.ID, err)
			}
		}
	}

	users, err := s.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		for _, u := range SeedUsers() {
			if err := s.Users.Save(ctx, &u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
	}

	packages, err := s.Packages.List(ctx)
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}
	if len(packages) == 0 {
		for _, p := range SeedPackages() {
			if err := s.Packages.Save(ctx, &p); err != nil {
				return fmt.Errorf("seed package %s: %w", p.ID, err)
			}
		}
	}
	return nil
}
