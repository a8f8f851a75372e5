package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SlotService struct {
	base
	db       *sqlx.DB
	stores   *Stores
	notifier *notify.Notifier
}

func NewSlotService(db *sqlx.DB, stores *Stores, notifier *notify.Notifier, opts ...Option) *SlotService {
	return &SlotService{base: newBase(opts), db: db, stores: stores, notifier: notifier}
}

func slotLink(id uuid.UUID) string {
	return "/slots/" + id.String()
}

func slotData(slot *booking.Slot) map[string]any {
	return map[string]any{"Date": slot.Date, "Time": slot.StartTime}
}

func (s *SlotService) GetSlot(ctx context.Context, id uuid.UUID) (*booking.Slot, error) {
	return s.stores.Slots.GetSlot(ctx, id)
}

func (s *SlotService) ListSlots(ctx context.Context, venueID uuid.UUID, date string) ([]booking.Slot, error) {
	if _, err := booking.ParseDate(date, s.loc); err != nil {
		return nil, err
	}
	return s.stores.Slots.ListByVenueDate(ctx, venueID, date)
}

func (s *SlotService) ListUpcoming(ctx context.Context, venueID uuid.UUID) ([]booking.Slot, error) {
	return s.stores.Slots.ListUpcomingByVenue(ctx, venueID, s.now())
}

// updateSlot runs one optimistic read-modify-write on a slot, retrying on version conflicts.
func (s *SlotService) updateSlot(ctx context.Context, slotID uuid.UUID, fn func(slot *booking.Slot) error) (*booking.Slot, error) {
	return mutateSlot(ctx, s.stores.Slots, slotID, fn)
}

func mutateSlot(ctx context.Context, slots *store.SlotStore, slotID uuid.UUID, fn func(slot *booking.Slot) error) (*booking.Slot, error) {
	var updated *booking.Slot
	err := retryOnConflict(ctx, func() error {
		slot, err := slots.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := fn(slot); err != nil {
			return err
		}
		if err := slot.CheckInvariants(); err != nil {
			return err
		}
		if err := slots.UpdateSlot(ctx, slot); err != nil {
			return err
		}
		updated = slot
		return nil
	})
	return updated, err
}

// BookSeats books seats for userID. A slot that becomes full flips its game to ready.
func (s *SlotService) BookSeats(ctx context.Context, slotID, userID uuid.UUID, seats int, side booking.TeamSide, paid bool) (*booking.Slot, error) {
	slot, err := s.updateSlot(ctx, slotID, func(slot *booking.Slot) error {
		return slot.Book(userID, seats, side, paid, s.now())
	})
	if err != nil {
		return nil, err
	}

	if slot.Status == booking.SlotFull {
		s.syncGame(ctx, slot.ID, game.Ready)
	}
	data := slotData(slot)
	data["Seats"] = seats
	s.notifier.Notify(ctx, userID, notify.BookingConfirmed, slotLink(slot.ID), data)
	return slot, nil
}

// CancelBooking releases every seat userID holds on the slot.
func (s *SlotService) CancelBooking(ctx context.Context, slotID, userID uuid.UUID) (*booking.Slot, error) {
	var wasFull bool
	slot, err := s.updateSlot(ctx, slotID, func(slot *booking.Slot) error {
		wasFull = slot.Status == booking.SlotFull
		_, err := slot.Cancel(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if wasFull {
		s.syncGame(ctx, slot.ID, game.Scheduled)
	}
	return slot, nil
}

// syncGame is a secondary effect of a slot transition and never fails the caller.
func (s *SlotService) syncGame(ctx context.Context, slotID uuid.UUID, status game.Status) {
	if err := s.stores.Games.SetStatusBySlot(ctx, slotID, status, s.now()); err != nil {
		s.logger.Warn("game status not synced", "slot_id", slotID, "status", status, "error", err)
	}
}

func (s *SlotService) ownedVenue(ctx context.Context, venueID, actorID uuid.UUID) (*booking.Venue, error) {
	venue, err := s.stores.Venues.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsOwner(actorID) {
		return nil, booking.ErrNotVenueOwner
	}
	return venue, nil
}

// AddSlot creates a one-off slot on a venue the actor owns.
func (s *SlotService) AddSlot(ctx context.Context, venueID, actorID uuid.UUID, date, start, end string) (*booking.Slot, error) {
	venue, err := s.ownedVenue(ctx, venueID, actorID)
	if err != nil {
		return nil, err
	}
	startsAt, endsAt, err := booking.ParseWindow(date, start, end, s.loc)
	if err != nil {
		return nil, err
	}

	existing, err := s.stores.Slots.ListByVenueDate(ctx, venueID, date)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.StartTime == start {
			return nil, booking.ErrSlotExists
		}
	}

	slot := booking.NewSlot(*venue, startsAt, endsAt)
	slots := []booking.Slot{slot}
	games := gamesFor(slots, s.now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.stores.Slots.CreateSlots(ctx, tx, slots); err != nil {
		return nil, err
	}
	if err := s.stores.Games.CreateGames(ctx, tx, games); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &slots[0], nil
}

// DeleteSlot removes an unbooked slot and its game record.
func (s *SlotService) DeleteSlot(ctx context.Context, slotID, actorID uuid.UUID) error {
	return retryOnConflict(ctx, func() error {
		slot, err := s.stores.Slots.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if _, err := s.ownedVenue(ctx, slot.VenueID, actorID); err != nil {
			return err
		}
		if err := slot.CanDelete(); err != nil {
			return err
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := s.stores.Games.DeleteBySlotTx(ctx, tx, slot.ID); err != nil {
			return err
		}
		if err := s.stores.Slots.DeleteSlotTx(ctx, tx, slot.ID, slot.Version); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// ResetSlotsForDate replaces a date's slots with the daily template. It refuses while any
// slot on that date holds players or an accepted challenge.
func (s *SlotService) ResetSlotsForDate(ctx context.Context, venueID, actorID uuid.UUID, date string) ([]booking.Slot, error) {
	venue, err := s.ownedVenue(ctx, venueID, actorID)
	if err != nil {
		return nil, err
	}
	day, err := booking.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}

	var fresh []booking.Slot
	err = retryOnConflict(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		existing, err := s.stores.Slots.ListByVenueDateTx(ctx, tx, venueID, date)
		if err != nil {
			return err
		}
		for _, slot := range existing {
			if err := slot.CanDelete(); err != nil {
				return fmt.Errorf("slot %s: %w", slot.StartTime, err)
			}
		}

		deleted, err := s.stores.Slots.DeleteUnbookedByVenueDateTx(ctx, tx, venueID, date)
		if err != nil {
			return err
		}
		if deleted != int64(len(existing)) {
			return store.ErrVersionConflict
		}
		if err := s.stores.Games.DeleteOrphansTx(ctx, tx, venueID); err != nil {
			return err
		}

		slots := booking.DailyTemplate(*venue, day)
		games := gamesFor(slots, s.now())
		if err := s.stores.Slots.CreateSlots(ctx, tx, slots); err != nil {
			return err
		}
		if err := s.stores.Games.CreateGames(ctx, tx, games); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		fresh = slots
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("slots reset", "venue_id", venueID, "date", date, "slots", len(fresh))
	return fresh, nil
}

// SetOfflineBooking marks a slot as booked outside the app, or releases it again.
func (s *SlotService) SetOfflineBooking(ctx context.Context, slotID, actorID uuid.UUID, offline bool) (*booking.Slot, error) {
	current, err := s.stores.Slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedVenue(ctx, current.VenueID, actorID); err != nil {
		return nil, err
	}
	return s.updateSlot(ctx, slotID, func(slot *booking.Slot) error {
		return slot.SetBookedOffline(offline)
	})
}

// CloseElapsedSlots moves every finished slot to ended or nofull and settles its game.
func (s *SlotService) CloseElapsedSlots(ctx context.Context) (int, error) {
	now := s.now()
	elapsed, err := s.stores.Slots.ListElapsed(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, candidate := range elapsed {
		var changed bool
		slot, err := s.updateSlot(ctx, candidate.ID, func(slot *booking.Slot) error {
			if changed = slot.Close(now); !changed {
				return errUnchanged
			}
			return nil
		})
		if errors.Is(err, errUnchanged) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to close slot", "slot_id", candidate.ID, "error", err)
			continue
		}
		closed++
		if slot.Status == booking.SlotEnded {
			s.syncGame(ctx, slot.ID, game.Completed)
		} else {
			s.syncGame(ctx, slot.ID, game.Cancelled)
		}
	}
	return closed, nil
}

// errUnchanged aborts a read-modify-write that turned out to have nothing to write.
var errUnchanged = errors.New("unchanged")
