package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/roster"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// sweepWorkers caps concurrent per-slot work in the background sweeps.
const sweepWorkers = 4

type ChallengeService struct {
	base
	db       *sqlx.DB
	stores   *Stores
	notifier *notify.Notifier
}

func NewChallengeService(db *sqlx.DB, stores *Stores, notifier *notify.Notifier, opts ...Option) *ChallengeService {
	return &ChallengeService{base: newBase(opts), db: db, stores: stores, notifier: notifier}
}

func (s *ChallengeService) ownedTeam(ctx context.Context, teamID, actorID uuid.UUID) (*roster.Team, error) {
	team, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsOwner(actorID) {
		return nil, roster.ErrNotOwner
	}
	return team, nil
}

// ListEligibleSlots returns the venue's upcoming slots a team may still challenge on.
func (s *ChallengeService) ListEligibleSlots(ctx context.Context, venueID uuid.UUID) ([]booking.Slot, error) {
	now := s.now()
	candidates, err := s.stores.Slots.ListChallengeCandidates(ctx, venueID, now)
	if err != nil {
		return nil, err
	}
	eligible := make([]booking.Slot, 0, len(candidates))
	for _, slot := range candidates {
		if slot.EligibleForChallenge(now) {
			eligible = append(eligible, slot)
		}
	}
	return eligible, nil
}

func (s *ChallengeService) ListOpenChallenges(ctx context.Context) ([]booking.Slot, error) {
	return s.stores.Slots.ListOpenChallenges(ctx, s.now())
}

// RequestChallenge opens a challenge on behalf of a team the actor owns.
func (s *ChallengeService) RequestChallenge(ctx context.Context, slotID, teamID, actorID uuid.UUID, paid bool) (*booking.Slot, error) {
	if _, err := s.ownedTeam(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	slot, err := mutateSlot(ctx, s.stores.Slots, slotID, func(slot *booking.Slot) error {
		return slot.RequestChallenge(teamID, paid, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("challenge requested", "slot_id", slotID, "team_id", teamID)
	return slot, nil
}

// AcceptChallenge seats the opponent team without payment.
func (s *ChallengeService) AcceptChallenge(ctx context.Context, slotID, teamID, actorID uuid.UUID) (*booking.Slot, error) {
	return s.accept(ctx, slotID, teamID, actorID, false)
}

// JoinChallenge is the pay-to-join path. It records the opponent's payment in the same write.
func (s *ChallengeService) JoinChallenge(ctx context.Context, slotID, teamID, actorID uuid.UUID) (*booking.Slot, error) {
	return s.accept(ctx, slotID, teamID, actorID, true)
}

func (s *ChallengeService) accept(ctx context.Context, slotID, teamID, actorID uuid.UUID, markPaid bool) (*booking.Slot, error) {
	opponent, err := s.ownedTeam(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	var displaced []uuid.UUID
	slot, err := mutateSlot(ctx, s.stores.Slots, slotID, func(slot *booking.Slot) error {
		var err error
		displaced, err = slot.AcceptChallenge(teamID, markPaid, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.stores.Games.SetStatusBySlot(ctx, slot.ID, game.Ready, s.now()); err != nil {
		s.logger.Warn("game status not synced", "slot_id", slot.ID, "error", err)
	}

	data := slotData(slot)
	data["Team"] = opponent.Name
	if owner := s.challengerOwner(ctx, slot); owner != nil {
		s.notifier.Notify(ctx, *owner, notify.ChallengeAccepted, slotLink(slot.ID), data)
	}
	s.notifier.NotifyAll(ctx, displaced, notify.BookingDisplaced, slotLink(slot.ID), slotData(slot))

	s.logger.Info("challenge accepted", "slot_id", slot.ID, "opponent_id", teamID, "paid", markPaid, "displaced", len(displaced))
	return slot, nil
}

// RejectChallenge lets the venue owner turn down a pending challenge.
func (s *ChallengeService) RejectChallenge(ctx context.Context, slotID, actorID uuid.UUID) (*booking.Slot, error) {
	current, err := s.stores.Slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	venue, err := s.stores.Venues.GetVenue(ctx, current.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsOwner(actorID) {
		return nil, booking.ErrNotVenueOwner
	}

	slot, err := mutateSlot(ctx, s.stores.Slots, slotID, func(slot *booking.Slot) error {
		return slot.RejectChallenge()
	})
	if err != nil {
		return nil, err
	}
	if owner := s.challengerOwner(ctx, slot); owner != nil {
		s.notifier.Notify(ctx, *owner, notify.ChallengeRejected, slotLink(slot.ID), slotData(slot))
	}
	return slot, nil
}

// RefundIfNoOpponent flags the challenger's refund once a day has passed without an
// opponent. Nothing is written when the refund is not due.
func (s *ChallengeService) RefundIfNoOpponent(ctx context.Context, slotID uuid.UUID) (bool, error) {
	now := s.now()
	slot, err := mutateSlot(ctx, s.stores.Slots, slotID, func(slot *booking.Slot) error {
		if !slot.RefundIfNoOpponent(now) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if owner := s.challengerOwner(ctx, slot); owner != nil {
		s.notifier.Notify(ctx, *owner, notify.ChallengeRefunded, slotLink(slot.ID), slotData(slot))
	}
	s.logger.Info("challenge refunded", "slot_id", slot.ID)
	return true, nil
}

// SweepRefunds refunds every pending challenge older than the refund window.
func (s *ChallengeService) SweepRefunds(ctx context.Context) (int, error) {
	due, err := s.stores.Slots.ListRefundable(ctx, s.now().Add(-booking.RefundWindow))
	if err != nil {
		return 0, err
	}

	var refunded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepWorkers)
	for _, slot := range due {
		id := slot.ID
		g.Go(func() error {
			ok, err := s.RefundIfNoOpponent(gctx, id)
			if err != nil {
				s.logger.Error("failed to refund challenge", "slot_id", id, "error", err)
				return nil
			}
			if ok {
				refunded.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(refunded.Load()), err
	}
	return int(refunded.Load()), nil
}

func (s *ChallengeService) challengerOwner(ctx context.Context, slot *booking.Slot) *uuid.UUID {
	if slot.Challenge.ChallengerID == nil {
		return nil
	}
	team, err := s.stores.Teams.GetTeam(ctx, *slot.Challenge.ChallengerID)
	if err != nil {
		s.logger.Warn("challenger team lookup failed", "team_id", *slot.Challenge.ChallengerID, "error", err)
		return nil
	}
	return &team.OwnerID
}
