package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

// User is a player. MyTeamID points at the single persistent team the user is seated on.
type User struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Username  string     `db:"username" json:"username"`
	MyTeamID  *uuid.UUID `db:"my_team_id" json:"my_team_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (u *User) InTeam() bool {
	return u.MyTeamID != nil
}

func (u *User) InOtherTeam(teamID uuid.UUID) bool {
	return u.MyTeamID != nil && *u.MyTeamID != teamID
}

var ErrInvalidUsername = fmt.Errorf("%w: username must be 1-50 characters", apperr.ErrValidation)

func ValidateUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 50 {
		return ErrInvalidUsername
	}
	return nil
}
