package booking

import (
	"fmt"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
)

var (
	ErrSlotNotAvailable     = fmt.Errorf("%w: slot is not available for booking", apperr.ErrConflict)
	ErrInsufficientCapacity = fmt.Errorf("%w: not enough seats left in slot", apperr.ErrConflict)
	ErrTeamCapacityExceeded = fmt.Errorf("%w: team would exceed half of the slot capacity", apperr.ErrConflict)
	ErrNotBooked            = fmt.Errorf("%w: user holds no seat in this slot", apperr.ErrNotFound)
	ErrSlotHasPlayers       = fmt.Errorf("%w: slot still has booked players", apperr.ErrConflict)
	ErrSlotClosed           = fmt.Errorf("%w: slot has already ended", apperr.ErrInvalidState)
	ErrInvalidSeatCount     = fmt.Errorf("%w: seat count must be positive", apperr.ErrValidation)
	ErrInvalidTeamSide      = fmt.Errorf("%w: team must be A or B", apperr.ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: date must be YYYY-MM-DD", apperr.ErrValidation)
	ErrInvalidTime          = fmt.Errorf("%w: time must be HH:MM and end after start", apperr.ErrValidation)
	ErrInvalidVenue         = fmt.Errorf("%w: venue needs a name, a non-negative price and a positive capacity", apperr.ErrValidation)
	ErrNotVenueOwner        = fmt.Errorf("%w: only the venue owner can perform this action", apperr.ErrForbidden)
	ErrSlotExists           = fmt.Errorf("%w: a slot already starts at that time", apperr.ErrConflict)

	ErrChallengeExists     = fmt.Errorf("%w: slot already has an active challenge", apperr.ErrConflict)
	ErrChallengeTaken      = fmt.Errorf("%w: challenge already has an opponent", apperr.ErrConflict)
	ErrChallengeNotPending = fmt.Errorf("%w: challenge is not pending", apperr.ErrInvalidState)
	ErrChallengeRefunded   = fmt.Errorf("%w: challenge was refunded", apperr.ErrInvalidState)
	ErrChallengeActive     = fmt.Errorf("%w: slot has an active challenge", apperr.ErrConflict)
	ErrSlotOverfilled      = fmt.Errorf("%w: slot is too full for a challenge", apperr.ErrConflict)
	ErrSelfChallenge       = fmt.Errorf("%w: a team cannot accept its own challenge", apperr.ErrValidation)

	ErrInvariant = fmt.Errorf("%w: slot invariant violated", apperr.ErrInvalidState)
)
