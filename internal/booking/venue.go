package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Venue struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OwnerID    uuid.UUID `db:"owner_id" json:"owner_id"`
	Name       string    `db:"name" json:"name"`
	PriceCents int       `db:"price_cents" json:"price_cents"`
	MaxPlayers int       `db:"max_players" json:"max_players"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (v *Venue) Validate() error {
	if strings.TrimSpace(v.Name) == "" || v.PriceCents < 0 || v.MaxPlayers <= 0 {
		return ErrInvalidVenue
	}
	return nil
}

func (v *Venue) IsOwner(userID uuid.UUID) bool {
	return v.OwnerID == userID
}
