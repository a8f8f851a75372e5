package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type VenueService struct {
	base
	db     *sqlx.DB
	stores *Stores
}

func NewVenueService(db *sqlx.DB, stores *Stores, opts ...Option) *VenueService {
	return &VenueService{base: newBase(opts), db: db, stores: stores}
}

type VenueInput struct {
	Name       string
	PriceCents int
	MaxPlayers int
}

// CreateVenue stores the venue together with a week of default slots and their game records.
func (s *VenueService) CreateVenue(ctx context.Context, ownerID uuid.UUID, in VenueInput) (*booking.Venue, error) {
	if _, err := s.stores.Users.GetUser(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("venue owner: %w", err)
	}

	now := s.now()
	venue := &booking.Venue{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(in.Name),
		PriceCents: in.PriceCents,
		MaxPlayers: in.MaxPlayers,
		CreatedAt:  now.UTC(),
	}
	if err := venue.Validate(); err != nil {
		return nil, err
	}

	slots := booking.GenerateDefaultSlots(*venue, now.In(s.loc))
	games := gamesFor(slots, now)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.stores.Venues.CreateVenue(ctx, tx, venue); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	if err := s.stores.Slots.CreateSlots(ctx, tx, slots); err != nil {
		return nil, fmt.Errorf("failed to create default slots: %w", err)
	}
	if err := s.stores.Games.CreateGames(ctx, tx, games); err != nil {
		return nil, fmt.Errorf("failed to create games: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("venue created", "venue_id", venue.ID, "slots", len(slots))
	return venue, nil
}

func (s *VenueService) GetVenue(ctx context.Context, id uuid.UUID) (*booking.Venue, error) {
	return s.stores.Venues.GetVenue(ctx, id)
}

func (s *VenueService) ListVenues(ctx context.Context) ([]booking.Venue, error) {
	return s.stores.Venues.ListVenues(ctx)
}

// gamesFor stamps the slots' creation time and builds one game per slot.
func gamesFor(slots []booking.Slot, now time.Time) []game.Game {
	games := make([]game.Game, 0, len(slots))
	for i := range slots {
		slots[i].CreatedAt = now.UTC()
		games = append(games, game.New(slots[i].ID, slots[i].VenueID, now))
	}
	return games
}
