package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type GameStore struct {
	db *sqlx.DB
}

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGames(ctx context.Context, tx *sqlx.Tx, games []game.Game) error {
	for i := range games {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO games (id, slot_id, venue_id, status, score_a, score_b, updated_at)
			VALUES (:id, :slot_id, :venue_id, :status, :score_a, :score_b, :updated_at)`, games[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *GameStore) GetBySlot(ctx context.Context, slotID uuid.UUID) (*game.Game, error) {
	var g game.Game
	if err := s.db.GetContext(ctx, &g, s.db.Rebind("SELECT * FROM games WHERE slot_id = ?"), slotID); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// SetStatusBySlot is idempotent; setting the current status again is a no-op.
func (s *GameStore) SetStatusBySlot(ctx context.Context, slotID uuid.UUID, status game.Status, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE games SET status = ?, updated_at = ? WHERE slot_id = ?"), status, now.UTC(), slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GameStore) UpdateResult(ctx context.Context, g *game.Game) error {
	_, err := s.db.NamedExecContext(ctx, `UPDATE games SET status = :status, score_a = :score_a, score_b = :score_b, updated_at = :updated_at
		WHERE id = :id`, g)
	return err
}

func (s *GameStore) DeleteBySlotTx(ctx context.Context, tx *sqlx.Tx, slotID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM games WHERE slot_id = ?"), slotID)
	return err
}

// DeleteOrphansTx removes games whose slot no longer exists.
func (s *GameStore) DeleteOrphansTx(ctx context.Context, tx *sqlx.Tx, venueID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM games
		WHERE venue_id = ? AND slot_id NOT IN (SELECT id FROM slots WHERE venue_id = ?)`), venueID, venueID)
	return err
}
