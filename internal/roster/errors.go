package roster

import (
	"fmt"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
)

var (
	ErrNotOwner        = fmt.Errorf("%w: only the team owner can do this", apperr.ErrForbidden)
	ErrOwnerSeat       = fmt.Errorf("%w: the owner seat cannot be changed", apperr.ErrForbidden)
	ErrInvalidSeat     = fmt.Errorf("%w: seat index out of range", apperr.ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: team name is required", apperr.ErrValidation)
	ErrSelfInvite      = fmt.Errorf("%w: cannot invite yourself", apperr.ErrValidation)
	ErrSeatTaken       = fmt.Errorf("%w: seat is not empty", apperr.ErrConflict)
	ErrSeatEmpty       = fmt.Errorf("%w: seat has no member", apperr.ErrNotFound)
	ErrAlreadyMember   = fmt.Errorf("%w: user is already on this team", apperr.ErrConflict)
	ErrAlreadyInTeam   = fmt.Errorf("%w: user already belongs to a team", apperr.ErrConflict)
	ErrInviteExists    = fmt.Errorf("%w: user already has a pending invite", apperr.ErrConflict)
	ErrInviteNotFound  = fmt.Errorf("%w: no pending invite", apperr.ErrNotFound)
	ErrRequestExists   = fmt.Errorf("%w: join request already pending", apperr.ErrConflict)
	ErrRequestNotFound = fmt.Errorf("%w: no pending join request", apperr.ErrNotFound)
	ErrTeamFull        = fmt.Errorf("%w: team has no empty seat", apperr.ErrConflict)
	ErrInvariant       = fmt.Errorf("%w: team invariant violated", apperr.ErrInvalidState)
)
