package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ChallengeStatus string

const (
	ChallengeNone     ChallengeStatus = ""
	ChallengePending  ChallengeStatus = "pending"
	ChallengeAccepted ChallengeStatus = "accepted"
	ChallengeRejected ChallengeStatus = "rejected"
)

type ChallengePayment struct {
	ChallengerPaid bool `json:"challenger_paid"`
	OpponentPaid   bool `json:"opponent_paid"`
	Refunded       bool `json:"refunded"`
}

// Challenge turns a slot into a reserved match between two persistent teams.
// Refunded is a terminal payment flag on a pending challenge, not a status of its own.
type Challenge struct {
	Status       ChallengeStatus  `json:"status"`
	ChallengerID *uuid.UUID       `json:"challenger_id"`
	OpponentID   *uuid.UUID       `json:"opponent_id"`
	CreatedAt    *time.Time       `json:"created_at"`
	AcceptedAt   *time.Time       `json:"accepted_at"`
	Payment      ChallengePayment `json:"payment"`
}

// Active challenges block a second request on the same slot.
func (c *Challenge) Active() bool {
	return c.Status == ChallengeAccepted || c.Open()
}

// Open means still waiting for an opponent.
func (c *Challenge) Open() bool {
	return c.Status == ChallengePending && c.OpponentID == nil && !c.Payment.Refunded
}

func (c *Challenge) Involves(teamID uuid.UUID) bool {
	return (c.ChallengerID != nil && *c.ChallengerID == teamID) || (c.OpponentID != nil && *c.OpponentID == teamID)
}

// RequestChallenge opens a pending challenge for teamID. The fill threshold is
// checked by the eligible-slot listing and again on acceptance.
func (s *Slot) RequestChallenge(teamID uuid.UUID, paid bool, now time.Time) error {
	if s.Challenge.Active() {
		return ErrChallengeExists
	}
	if s.Status != SlotAvailable || s.BookedOffline || !IsUpcoming(s.StartsAt, now) {
		return ErrSlotNotAvailable
	}
	created := now.UTC()
	s.Challenge = Challenge{
		Status:       ChallengePending,
		ChallengerID: &teamID,
		CreatedAt:    &created,
		Payment:      ChallengePayment{ChallengerPaid: paid},
	}
	return nil
}

// AcceptChallenge seats opponentID as the single opponent. Individual bookings are
// cleared and returned so the caller can tell the displaced players. markPaid records
// the opponent's payment for the pay-to-join path.
func (s *Slot) AcceptChallenge(opponentID uuid.UUID, markPaid bool, now time.Time) ([]uuid.UUID, error) {
	c := &s.Challenge
	if c.OpponentID != nil {
		return nil, ErrChallengeTaken
	}
	if c.Status != ChallengePending {
		return nil, ErrChallengeNotPending
	}
	if c.Payment.Refunded {
		return nil, ErrChallengeRefunded
	}
	if c.ChallengerID != nil && *c.ChallengerID == opponentID {
		return nil, ErrSelfChallenge
	}
	if s.Status != SlotAvailable || s.BookedOffline || !IsUpcoming(s.StartsAt, now) {
		return nil, ErrSlotNotAvailable
	}
	if !BelowFillThreshold(len(s.Players), s.MaxPlayers) {
		return nil, ErrSlotOverfilled
	}

	displaced := s.DistinctPlayers()
	s.Players = []uuid.UUID{}
	s.TeamA = []uuid.UUID{}
	s.TeamB = []uuid.UUID{}
	s.PaymentStatus = []PlayerPayment{}

	accepted := now.UTC()
	c.Status = ChallengeAccepted
	c.OpponentID = &opponentID
	c.AcceptedAt = &accepted
	if markPaid {
		c.Payment.OpponentPaid = true
	}
	s.Status = SlotBooked
	return displaced, nil
}

func (s *Slot) RejectChallenge() error {
	if s.Challenge.Status != ChallengePending {
		return ErrChallengeNotPending
	}
	if s.Challenge.Payment.Refunded {
		return ErrChallengeRefunded
	}
	s.Challenge.Status = ChallengeRejected
	return nil
}

// RefundIfNoOpponent flags the refund once the pending window has elapsed without an
// opponent. It returns false, changing nothing, in every other case.
func (s *Slot) RefundIfNoOpponent(now time.Time) bool {
	c := &s.Challenge
	if c.Status != ChallengePending || c.OpponentID != nil || c.Payment.Refunded || c.CreatedAt == nil {
		return false
	}
	if !RefundDue(*c.CreatedAt, now) {
		return false
	}
	c.Payment.Refunded = true
	return true
}

func (c *Challenge) checkInvariants(s *Slot) error {
	switch c.Status {
	case ChallengeNone:
		if c.ChallengerID != nil || c.OpponentID != nil {
			return fmt.Errorf("%w: teams set on an empty challenge", ErrInvariant)
		}
	case ChallengePending:
		if c.ChallengerID == nil || c.CreatedAt == nil {
			return fmt.Errorf("%w: pending challenge without challenger", ErrInvariant)
		}
		if c.OpponentID != nil {
			return fmt.Errorf("%w: pending challenge with opponent", ErrInvariant)
		}
	case ChallengeAccepted:
		if c.ChallengerID == nil || c.OpponentID == nil || c.AcceptedAt == nil {
			return fmt.Errorf("%w: accepted challenge missing a team", ErrInvariant)
		}
		if len(s.Players) > 0 {
			return fmt.Errorf("%w: accepted challenge alongside %d individual seats", ErrInvariant, len(s.Players))
		}
		if s.Status != SlotBooked && s.Status != SlotEnded {
			return fmt.Errorf("%w: accepted challenge on %s slot", ErrInvariant, s.Status)
		}
	case ChallengeRejected:
	default:
		return fmt.Errorf("%w: unknown challenge status %q", ErrInvariant, c.Status)
	}
	if c.Payment.Refunded && (c.Status != ChallengePending || c.OpponentID != nil) {
		return fmt.Errorf("%w: refund on a %s challenge", ErrInvariant, c.Status)
	}
	return nil
}
