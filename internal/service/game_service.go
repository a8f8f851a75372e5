package service

import (
	"context"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/google/uuid"
)

type GameService struct {
	base
	stores *Stores
}

func NewGameService(stores *Stores, opts ...Option) *GameService {
	return &GameService{base: newBase(opts), stores: stores}
}

func (s *GameService) GetGame(ctx context.Context, slotID uuid.UUID) (*game.Game, error) {
	return s.stores.Games.GetBySlot(ctx, slotID)
}

// RecordResult stores the score for a slot's game. Only the venue owner may do this.
func (s *GameService) RecordResult(ctx context.Context, slotID, actorID uuid.UUID, scoreA, scoreB int) (*game.Game, error) {
	slot, err := s.stores.Slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	venue, err := s.stores.Venues.GetVenue(ctx, slot.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsOwner(actorID) {
		return nil, booking.ErrNotVenueOwner
	}

	g, err := s.stores.Games.GetBySlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := g.RecordResult(scoreA, scoreB, s.now()); err != nil {
		return nil, err
	}
	if err := s.stores.Games.UpdateResult(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("game result recorded", "game_id", g.ID, "slot_id", slotID, "score_a", scoreA, "score_b", scoreB)
	return g, nil
}
