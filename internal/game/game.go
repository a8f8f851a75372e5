package game

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/google/uuid"
)

type Status string

const (
	Scheduled Status = "scheduled"
	Ready     Status = "ready"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

var (
	ErrInvalidScore  = fmt.Errorf("%w: scores must be non-negative", apperr.ErrValidation)
	ErrNotPlayable   = fmt.Errorf("%w: game has not been played", apperr.ErrInvalidState)
	ErrInvalidStatus = fmt.Errorf("%w: unknown game status", apperr.ErrValidation)
)

// Game is the result record created alongside each slot.
type Game struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SlotID    uuid.UUID `db:"slot_id" json:"slot_id"`
	VenueID   uuid.UUID `db:"venue_id" json:"venue_id"`
	Status    Status    `db:"status" json:"status"`
	ScoreA    *int      `db:"score_a" json:"score_a"`
	ScoreB    *int      `db:"score_b" json:"score_b"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func New(slotID, venueID uuid.UUID, now time.Time) Game {
	return Game{
		ID:        uuid.New(),
		SlotID:    slotID,
		VenueID:   venueID,
		Status:    Scheduled,
		UpdatedAt: now.UTC(),
	}
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Scheduled, Ready, Completed, Cancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// RecordResult is only legal once the slot filled up or the game already finished.
func (g *Game) RecordResult(scoreA, scoreB int, now time.Time) error {
	if scoreA < 0 || scoreB < 0 {
		return ErrInvalidScore
	}
	if g.Status != Ready && g.Status != Completed {
		return ErrNotPlayable
	}
	g.ScoreA = &scoreA
	g.ScoreB = &scoreB
	g.Status = Completed
	g.UpdatedAt = now.UTC()
	return nil
}
