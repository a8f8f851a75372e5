package store

import (
	"context"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type VenueStore struct {
	db *sqlx.DB
}

func NewVenueStore(db *sqlx.DB) *VenueStore {
	return &VenueStore{db: db}
}

func (s *VenueStore) CreateVenue(ctx context.Context, tx *sqlx.Tx, venue *booking.Venue) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO venues (id, owner_id, name, price_cents, max_players, created_at)
		VALUES (:id, :owner_id, :name, :price_cents, :max_players, :created_at)`, venue)
	return err
}

func (s *VenueStore) GetVenue(ctx context.Context, id uuid.UUID) (*booking.Venue, error) {
	var venue booking.Venue
	err := s.db.GetContext(ctx, &venue, s.db.Rebind("SELECT * FROM venues WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &venue, nil
}

func (s *VenueStore) GetVenueTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*booking.Venue, error) {
	var venue booking.Venue
	err := tx.GetContext(ctx, &venue, tx.Rebind("SELECT * FROM venues WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &venue, nil
}

func (s *VenueStore) ListVenues(ctx context.Context) ([]booking.Venue, error) {
	venues := []booking.Venue{}
	err := s.db.SelectContext(ctx, &venues, "SELECT * FROM venues ORDER BY name ASC")
	return venues, err
}
