package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReminderService notifies everyone playing in a slot that starts within the lead time.
// Each slot is reminded at most once; the reminder_sent flag is claimed before sending.
type ReminderService struct {
	base
	stores   *Stores
	notifier *notify.Notifier
	lead     time.Duration
}

func NewReminderService(stores *Stores, notifier *notify.Notifier, lead time.Duration, opts ...Option) *ReminderService {
	return &ReminderService{base: newBase(opts), stores: stores, notifier: notifier, lead: lead}
}

// Sweep returns the number of slots reminded in this run.
func (s *ReminderService) Sweep(ctx context.Context) (int, error) {
	due, err := s.stores.Slots.ListDueReminders(ctx, s.now(), s.lead)
	if err != nil {
		return 0, err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepWorkers)
	for i := range due {
		slot := due[i]
		g.Go(func() error {
			claimed, err := s.stores.Slots.MarkReminderSent(gctx, slot.ID)
			if err != nil {
				s.logger.Error("failed to claim reminder", "slot_id", slot.ID, "error", err)
				return nil
			}
			if !claimed {
				return nil
			}
			recipients := s.recipients(gctx, &slot)
			s.notifier.NotifyAll(gctx, recipients, notify.SlotReminder, slotLink(slot.ID), slotData(&slot))
			sent.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(sent.Load()), err
}

// recipients are the slot's distinct players, or both rosters for an accepted challenge.
func (s *ReminderService) recipients(ctx context.Context, slot *booking.Slot) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	add := func(ids []uuid.UUID) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(slot.DistinctPlayers())

	c := slot.Challenge
	if c.Status != booking.ChallengeAccepted {
		return out
	}
	for _, teamID := range []*uuid.UUID{c.ChallengerID, c.OpponentID} {
		if teamID == nil {
			continue
		}
		team, err := s.stores.Teams.GetTeam(ctx, *teamID)
		if err != nil {
			s.logger.Warn("reminder team lookup failed", "team_id", *teamID, "error", err)
			continue
		}
		add(team.Members())
	}
	return out
}
