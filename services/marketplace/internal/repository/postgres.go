package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

const queryTimeout = 3 * time.Second

type scanner interface {
	Scan(dest ...any) error
}

// NewPostgresStore returns a Store backed by the tables in pkg/database/schema.sql.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Requests:       &pgRequests{pool: pool},
		Offers:         &pgOffers{pool: pool},
		Packages:       &pgPackages{pool: pool},
		BookingIntents: &pgIntents{pool: pool},
		Operators:      &pgOperators{pool: pool},
		Users:          &pgUsers{pool: pool},
	}
}

func marshalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return b, nil
}

// nullableJSON encodes v, mapping a nil pointer to SQL NULL.
func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return marshalJSON(v)
}

func unmarshalJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func unmarshalNullable[T any](raw []byte) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	v := new(T)
	if err := unmarshalJSON(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}

func collect[T any](rows pgx.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func noRows[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ---- quote requests ----

type pgRequests struct {
	pool *pgxpool.Pool
}

const requestCols = `id, customer_id, status, created_at, type, season,
date_window, departure_city, total_nights, nights_makkah, nights_madinah,
hotel_stars, distance_preference, budget_range, occupancy, inclusions, notes`

func scanRequest(s scanner) (*domain.QuoteRequest, error) {
	var (
		r                                 domain.QuoteRequest
		window, budget, occupancy, inclus []byte
	)
	err := s.Scan(
		&r.ID, &r.CustomerID, &r.Status, &r.CreatedAt, &r.Type, &r.Season,
		&window, &r.DepartureCity, &r.TotalNights, &r.NightsMakkah, &r.NightsMadinah,
		&r.HotelStars, &r.DistancePreference, &budget, &occupancy, &inclus, &r.Notes,
	)
	if err != nil {
		return nil, err
	}
	if r.DateWindow, err = unmarshalNullable[domain.DateWindow](window); err != nil {
		return nil, err
	}
	if r.BudgetRange, err = unmarshalNullable[domain.BudgetRange](budget); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(occupancy, &r.Occupancy); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(inclus, &r.Inclusions); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *pgRequests) List(ctx context.Context) ([]domain.QuoteRequest, error) {
	const q = `SELECT ` + requestCols + ` FROM quote_requests ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRequest)
}

func (p *pgRequests) GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	const q = `SELECT ` + requestCols + ` FROM quote_requests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanRequest(p.pool.QueryRow(ctx, q, id)))
}

func (p *pgRequests) Save(ctx context.Context, r *domain.QuoteRequest) error {
	const q = `INSERT INTO quote_requests (` + requestCols + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		season = EXCLUDED.season,
		date_window = EXCLUDED.date_window,
		departure_city = EXCLUDED.departure_city,
		total_nights = EXCLUDED.total_nights,
		nights_makkah = EXCLUDED.nights_makkah,
		nights_madinah = EXCLUDED.nights_madinah,
		hotel_stars = EXCLUDED.hotel_stars,
		distance_preference = EXCLUDED.distance_preference,
		budget_range = EXCLUDED.budget_range,
		occupancy = EXCLUDED.occupancy,
		inclusions = EXCLUDED.inclusions,
		notes = EXCLUDED.notes`

	window, err := nullableJSON(r.DateWindow)
	if err != nil {
		return err
	}
	budget, err := nullableJSON(r.BudgetRange)
	if err != nil {
		return err
	}
	occupancy, err := marshalJSON(r.Occupancy)
	if err != nil {
		return err
	}
	inclus, err := marshalJSON(r.Inclusions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = p.pool.Exec(ctx, q,
		r.ID, r.CustomerID, r.Status, r.CreatedAt, r.Type, r.Season,
		window, r.DepartureCity, r.TotalNights, r.NightsMakkah, r.NightsMadinah,
		r.HotelStars, r.DistancePreference, budget, occupancy, inclus, r.Notes,
	)
	return err
}

// ---- offers ----

type pgOffers struct {
	pool *pgxpool.Pool
}

const offerCols = `id, request_id, operator_id, created_at, price_per_person, currency,
total_nights, nights_makkah, nights_madinah, hotel_stars, distance_to_haram,
room_occupancy, inclusions, notes`

func scanOffer(s scanner) (*domain.Offer, error) {
	var (
		o                 domain.Offer
		occupancy, inclus []byte
	)
	err := s.Scan(
		&o.ID, &o.RequestID, &o.OperatorID, &o.CreatedAt, &o.PricePerPerson, &o.Currency,
		&o.TotalNights, &o.NightsMakkah, &o.NightsMadinah, &o.HotelStars, &o.DistanceToHaram,
		&occupancy, &inclus, &o.Notes,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(occupancy, &o.RoomOccupancy); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(inclus, &o.Inclusions); err != nil {
		return nil, err
	}
	return &o, nil
}

func (p *pgOffers) query(ctx context.Context, q string, args ...any) ([]domain.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOffer)
}

func (p *pgOffers) List(ctx context.Context) ([]domain.Offer, error) {
	return p.query(ctx, `SELECT `+offerCols+` FROM offers ORDER BY created_at, id`)
}

func (p *pgOffers) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	const q = `SELECT ` + offerCols + ` FROM offers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanOffer(p.pool.QueryRow(ctx, q, id)))
}

func (p *pgOffers) ListByRequest(ctx context.Context, requestID string) ([]domain.Offer, error) {
	return p.query(ctx, `SELECT `+offerCols+` FROM offers WHERE request_id=$1 ORDER BY created_at, id`, requestID)
}

func (p *pgOffers) ListByOperator(ctx context.Context, operatorID string) ([]domain.Offer, error) {
	return p.query(ctx, `SELECT `+offerCols+` FROM offers WHERE operator_id=$1 ORDER BY created_at, id`, operatorID)
}

func (p *pgOffers) Save(ctx context.Context, o *domain.Offer) error {
	const q = `INSERT INTO offers (` + offerCols + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (id) DO UPDATE SET
		price_per_person = EXCLUDED.price_per_person,
		currency = EXCLUDED.currency,
		total_nights = EXCLUDED.total_nights,
		nights_makkah = EXCLUDED.nights_makkah,
		nights_madinah = EXCLUDED.nights_madinah,
		hotel_stars = EXCLUDED.hotel_stars,
		distance_to_haram = EXCLUDED.distance_to_haram,
		room_occupancy = EXCLUDED.room_occupancy,
		inclusions = EXCLUDED.inclusions,
		notes = EXCLUDED.notes`

	occupancy, err := marshalJSON(o.RoomOccupancy)
	if err != nil {
		return err
	}
	inclus, err := marshalJSON(o.Inclusions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = p.pool.Exec(ctx, q,
		o.ID, o.RequestID, o.OperatorID, o.CreatedAt, o.PricePerPerson, o.Currency,
		o.TotalNights, o.NightsMakkah, o.NightsMadinah, o.HotelStars, o.DistanceToHaram,
		occupancy, inclus, o.Notes,
	)
	return err
}

// ---- packages ----

type pgPackages struct {
	pool *pgxpool.Pool
}

const packageCols = `id, operator_id, title, slug, status, pilgrimage_type, season_label,
price_type, price_per_person, currency, total_nights, nights_makkah, nights_madinah,
hotel_makkah_stars, hotel_madinah_stars, distance_band_makkah, distance_band_madinah,
room_occupancy_options, inclusions, notes, version, created_at, updated_at`

func scanPackage(s scanner) (*domain.Package, error) {
	var (
		p                 domain.Package
		occupancy, inclus []byte
	)
	err := s.Scan(
		&p.ID, &p.OperatorID, &p.Title, &p.Slug, &p.Status, &p.PilgrimageType, &p.SeasonLabel,
		&p.PriceType, &p.PricePerPerson, &p.Currency, &p.TotalNights, &p.NightsMakkah, &p.NightsMadinah,
		&p.HotelMakkahStars, &p.HotelMadinahStars, &p.DistanceBandMakkah, &p.DistanceBandMadinah,
		&occupancy, &inclus, &p.Notes, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(occupancy, &p.RoomOccupancyOptions); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(inclus, &p.Inclusions); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPackages) List(ctx context.Context) ([]domain.Package, error) {
	const q = `SELECT ` + packageCols + ` FROM packages ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPackage)
}

func (r *pgPackages) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	const q = `SELECT ` + packageCols + ` FROM packages WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanPackage(r.pool.QueryRow(ctx, q, id)))
}

func (r *pgPackages) GetBySlug(ctx context.Context, slug string) (*domain.Package, error) {
	const q = `SELECT ` + packageCols + ` FROM packages WHERE slug=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanPackage(r.pool.QueryRow(ctx, q, slug)))
}

func (r *pgPackages) Save(ctx context.Context, p *domain.Package) error {
	const q = `INSERT INTO packages (` + packageCols + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	ON CONFLICT (id) DO UPDATE SET
		operator_id = EXCLUDED.operator_id,
		title = EXCLUDED.title,
		slug = EXCLUDED.slug,
		status = EXCLUDED.status,
		pilgrimage_type = EXCLUDED.pilgrimage_type,
		season_label = EXCLUDED.season_label,
		price_type = EXCLUDED.price_type,
		price_per_person = EXCLUDED.price_per_person,
		currency = EXCLUDED.currency,
		total_nights = EXCLUDED.total_nights,
		nights_makkah = EXCLUDED.nights_makkah,
		nights_madinah = EXCLUDED.nights_madinah,
		hotel_makkah_stars = EXCLUDED.hotel_makkah_stars,
		hotel_madinah_stars = EXCLUDED.hotel_madinah_stars,
		distance_band_makkah = EXCLUDED.distance_band_makkah,
		distance_band_madinah = EXCLUDED.distance_band_madinah,
		room_occupancy_options = EXCLUDED.room_occupancy_options,
		inclusions = EXCLUDED.inclusions,
		notes = EXCLUDED.notes,
		version = EXCLUDED.version,
		updated_at = EXCLUDED.updated_at`

	occupancy, err := marshalJSON(p.RoomOccupancyOptions)
	if err != nil {
		return err
	}
	inclus, err := marshalJSON(p.Inclusions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = r.pool.Exec(ctx, q,
		p.ID, p.OperatorID, p.Title, p.Slug, p.Status, p.PilgrimageType, p.SeasonLabel,
		p.PriceType, p.PricePerPerson, p.Currency, p.TotalNights, p.NightsMakkah, p.NightsMadinah,
		p.HotelMakkahStars, p.HotelMadinahStars, p.DistanceBandMakkah, p.DistanceBandMadinah,
		occupancy, inclus, p.Notes, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *pgPackages) Update(ctx context.Context, p *domain.Package, expectedVersion int) error {
	// operator_id and slug are deliberately absent from the SET list.
	const q = `
		UPDATE packages
		SET
			title = $3,
			status = $4,
			pilgrimage_type = $5,
			season_label = $6,
			price_type = $7,
			price_per_person = $8,
			currency = $9,
			total_nights = $10,
			nights_makkah = $11,
			nights_madinah = $12,
			hotel_makkah_stars = $13,
			hotel_madinah_stars = $14,
			distance_band_makkah = $15,
			distance_band_madinah = $16,
			room_occupancy_options = $17,
			inclusions = $18,
			notes = $19,
			updated_at = $20,
			version = version + 1
		WHERE id=$1 AND version=$2
		RETURNING version`

	occupancy, err := marshalJSON(p.RoomOccupancyOptions)
	if err != nil {
		return err
	}
	inclus, err := marshalJSON(p.Inclusions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var version int
	err = r.pool.QueryRow(ctx, q,
		p.ID, expectedVersion,
		p.Title, p.Status, p.PilgrimageType, p.SeasonLabel,
		p.PriceType, p.PricePerPerson, p.Currency, p.TotalNights, p.NightsMakkah, p.NightsMadinah,
		p.HotelMakkahStars, p.HotelMadinahStars, p.DistanceBandMakkah, p.DistanceBandMadinah,
		occupancy, inclus, p.Notes, p.UpdatedAt,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM packages WHERE id=$1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	if err != nil {
		return err
	}
	p.Version = version
	return nil
}

func (r *pgPackages) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id=$1`, id)
	return err
}

// ---- booking intents ----

type pgIntents struct {
	pool *pgxpool.Pool
}

const intentCols = `id, offer_id, customer_id, operator_id, status, created_at, updated_at, notes`

func scanIntent(s scanner) (*domain.BookingIntent, error) {
	var b domain.BookingIntent
	if err := s.Scan(&b.ID, &b.OfferID, &b.CustomerID, &b.OperatorID, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Notes); err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *pgIntents) List(ctx context.Context) ([]domain.BookingIntent, error) {
	const q = `SELECT ` + intentCols + ` FROM booking_intents ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanIntent)
}

func (p *pgIntents) Save(ctx context.Context, b *domain.BookingIntent) error {
	const q = `INSERT INTO booking_intents (` + intentCols + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := p.pool.Exec(ctx, q, b.ID, b.OfferID, b.CustomerID, b.OperatorID, b.Status, b.CreatedAt, b.UpdatedAt, b.Notes)
	return err
}

// ---- operators ----

type pgOperators struct {
	pool *pgxpool.Pool
}

const operatorCols = `id, company_name, verification_status, contact_email, contact_phone, branding`

func scanOperator(s scanner) (*domain.OperatorProfile, error) {
	var (
		op       domain.OperatorProfile
		branding []byte
	)
	if err := s.Scan(&op.ID, &op.CompanyName, &op.VerificationStatus, &op.ContactEmail, &op.ContactPhone, &branding); err != nil {
		return nil, err
	}
	var err error
	if op.Branding, err = unmarshalNullable[domain.Branding](branding); err != nil {
		return nil, err
	}
	return &op, nil
}

func (p *pgOperators) List(ctx context.Context) ([]domain.OperatorProfile, error) {
	const q = `SELECT ` + operatorCols + ` FROM operators ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOperator)
}

func (p *pgOperators) GetByID(ctx context.Context, id string) (*domain.OperatorProfile, error) {
	const q = `SELECT ` + operatorCols + ` FROM operators WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanOperator(p.pool.QueryRow(ctx, q, id)))
}

func (p *pgOperators) Save(ctx context.Context, op *domain.OperatorProfile) error {
	const q = `INSERT INTO operators (` + operatorCols + `) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (id) DO UPDATE SET
		company_name = EXCLUDED.company_name,
		verification_status = EXCLUDED.verification_status,
		contact_email = EXCLUDED.contact_email,
		contact_phone = EXCLUDED.contact_phone,
		branding = EXCLUDED.branding`

	branding, err := nullableJSON(op.Branding)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = p.pool.Exec(ctx, q, op.ID, op.CompanyName, op.VerificationStatus, op.ContactEmail, op.ContactPhone, branding)
	return err
}

// ---- users ----

type pgUsers struct {
	pool *pgxpool.Pool
}

const userCols = `id, email, role, name`

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.Email, &u.Role, &u.Name); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *pgUsers) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (p *pgUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanUser(p.pool.QueryRow(ctx, q, id)))
}

func (p *pgUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return noRows(scanUser(p.pool.QueryRow(ctx, q, email)))
}

func (p *pgUsers) Save(ctx context.Context, u *domain.User) error {
	const q = `INSERT INTO users (` + userCols + `) VALUES ($1,$2,$3,$4)
	ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role, name = EXCLUDED.name`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := p.pool.Exec(ctx, q, u.ID, u.Email, u.Role, u.Name)
	return err
}
