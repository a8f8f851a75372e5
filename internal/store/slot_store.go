package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SlotStore struct {
	db *sqlx.DB
}

func NewSlotStore(db *sqlx.DB) *SlotStore {
	return &SlotStore{db: db}
}

// slotRow flattens the embedded challenge into columns and keeps seat lists as JSON.
type slotRow struct {
	ID                  uuid.UUID                           `db:"id"`
	VenueID             uuid.UUID                           `db:"venue_id"`
	Date                string                              `db:"date"`
	StartTime           string                              `db:"start_time"`
	EndTime             string                              `db:"end_time"`
	StartsAt            time.Time                           `db:"starts_at"`
	EndsAt              time.Time                           `db:"ends_at"`
	MaxPlayers          int                                 `db:"max_players"`
	PriceCents          int                                 `db:"price_cents"`
	Status              booking.SlotStatus                  `db:"status"`
	BookedOffline       bool                                `db:"booked_offline"`
	Players             jsonColumn[[]uuid.UUID]             `db:"players"`
	TeamA               jsonColumn[[]uuid.UUID]             `db:"team_a"`
	TeamB               jsonColumn[[]uuid.UUID]             `db:"team_b"`
	PaymentStatus       jsonColumn[[]booking.PlayerPayment] `db:"payment_status"`
	ChallengeStatus     booking.ChallengeStatus             `db:"challenge_status"`
	ChallengerID        *uuid.UUID                          `db:"challenger_id"`
	OpponentID          *uuid.UUID                          `db:"opponent_id"`
	ChallengeCreatedAt  *time.Time                          `db:"challenge_created_at"`
	ChallengeAcceptedAt *time.Time                          `db:"challenge_accepted_at"`
	ChallengerPaid      bool                                `db:"challenger_paid"`
	OpponentPaid        bool                                `db:"opponent_paid"`
	ChallengeRefunded   bool                                `db:"challenge_refunded"`
	ReminderSent        bool                                `db:"reminder_sent"`
	Version             int                                 `db:"version"`
	CreatedAt           time.Time                           `db:"created_at"`
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func toSlotRow(s *booking.Slot) slotRow {
	return slotRow{
		ID:                  s.ID,
		VenueID:             s.VenueID,
		Date:                s.Date,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		StartsAt:            s.StartsAt.UTC(),
		EndsAt:              s.EndsAt.UTC(),
		MaxPlayers:          s.MaxPlayers,
		PriceCents:          s.PriceCents,
		Status:              s.Status,
		BookedOffline:       s.BookedOffline,
		Players:             jsonColumn[[]uuid.UUID]{V: nonNil(s.Players)},
		TeamA:               jsonColumn[[]uuid.UUID]{V: nonNil(s.TeamA)},
		TeamB:               jsonColumn[[]uuid.UUID]{V: nonNil(s.TeamB)},
		PaymentStatus:       jsonColumn[[]booking.PlayerPayment]{V: nonNil(s.PaymentStatus)},
		ChallengeStatus:     s.Challenge.Status,
		ChallengerID:        s.Challenge.ChallengerID,
		OpponentID:          s.Challenge.OpponentID,
		ChallengeCreatedAt:  s.Challenge.CreatedAt,
		ChallengeAcceptedAt: s.Challenge.AcceptedAt,
		ChallengerPaid:      s.Challenge.Payment.ChallengerPaid,
		OpponentPaid:        s.Challenge.Payment.OpponentPaid,
		ChallengeRefunded:   s.Challenge.Payment.Refunded,
		ReminderSent:        s.ReminderSent,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt.UTC(),
	}
}

func (r *slotRow) toSlot() *booking.Slot {
	return &booking.Slot{
		ID:            r.ID,
		VenueID:       r.VenueID,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		StartsAt:      r.StartsAt.UTC(),
		EndsAt:        r.EndsAt.UTC(),
		MaxPlayers:    r.MaxPlayers,
		PriceCents:    r.PriceCents,
		Status:        r.Status,
		BookedOffline: r.BookedOffline,
		Players:       nonNil(r.Players.V),
		TeamA:         nonNil(r.TeamA.V),
		TeamB:         nonNil(r.TeamB.V),
		PaymentStatus: nonNil(r.PaymentStatus.V),
		Challenge: booking.Challenge{
			Status:       r.ChallengeStatus,
			ChallengerID: r.ChallengerID,
			OpponentID:   r.OpponentID,
			CreatedAt:    utcPtr(r.ChallengeCreatedAt),
			AcceptedAt:   utcPtr(r.ChallengeAcceptedAt),
			Payment: booking.ChallengePayment{
				ChallengerPaid: r.ChallengerPaid,
				OpponentPaid:   r.OpponentPaid,
				Refunded:       r.ChallengeRefunded,
			},
		},
		ReminderSent: r.ReminderSent,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toSlots(rows []slotRow) []booking.Slot {
	slots := make([]booking.Slot, 0, len(rows))
	for i := range rows {
		slots = append(slots, *rows[i].toSlot())
	}
	return slots
}

const insertSlotQuery = `INSERT INTO slots (id, venue_id, date, start_time, end_time, starts_at, ends_at, max_players,
	price_cents, status, booked_offline, players, team_a, team_b, payment_status, challenge_status, challenger_id,
	opponent_id, challenge_created_at, challenge_accepted_at, challenger_paid, opponent_paid, challenge_refunded,
	reminder_sent, version, created_at)
	VALUES (:id, :venue_id, :date, :start_time, :end_time, :starts_at, :ends_at, :max_players,
	:price_cents, :status, :booked_offline, :players, :team_a, :team_b, :payment_status, :challenge_status, :challenger_id,
	:opponent_id, :challenge_created_at, :challenge_accepted_at, :challenger_paid, :opponent_paid, :challenge_refunded,
	:reminder_sent, :version, :created_at)`

// reminder_sent is left out: it is owned by MarkReminderSent and must not be
// overwritten by a concurrent seat update holding a stale copy.
const updateSlotQuery = `UPDATE slots SET
	status = :status,
	booked_offline = :booked_offline,
	players = :players,
	team_a = :team_a,
	team_b = :team_b,
	payment_status = :payment_status,
	challenge_status = :challenge_status,
	challenger_id = :challenger_id,
	opponent_id = :opponent_id,
	challenge_created_at = :challenge_created_at,
	challenge_accepted_at = :challenge_accepted_at,
	challenger_paid = :challenger_paid,
	opponent_paid = :opponent_paid,
	challenge_refunded = :challenge_refunded,
	version = version + 1
	WHERE id = :id AND version = :version`

func (s *SlotStore) CreateSlots(ctx context.Context, tx *sqlx.Tx, slots []booking.Slot) error {
	for i := range slots {
		row := toSlotRow(&slots[i])
		if _, err := tx.NamedExecContext(ctx, insertSlotQuery, row); err != nil {
			return fmt.Errorf("insert slot %s %s: %w", slots[i].Date, slots[i].StartTime, err)
		}
	}
	return nil
}

func (s *SlotStore) GetSlot(ctx context.Context, id uuid.UUID) (*booking.Slot, error) {
	var row slotRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT * FROM slots WHERE id = ?"), id); err != nil {
		return nil, notFound(err)
	}
	return row.toSlot(), nil
}

func (s *SlotStore) GetSlotTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*booking.Slot, error) {
	var row slotRow
	if err := tx.GetContext(ctx, &row, tx.Rebind("SELECT * FROM slots WHERE id = ?"), id); err != nil {
		return nil, notFound(err)
	}
	return row.toSlot(), nil
}

// UpdateSlot writes slot back only if nobody else has since, then bumps slot.Version.
func (s *SlotStore) UpdateSlot(ctx context.Context, slot *booking.Slot) error {
	res, err := s.db.NamedExecContext(ctx, updateSlotQuery, toSlotRow(slot))
	if err != nil {
		return fmt.Errorf("update slot %s: %w", slot.ID, err)
	}
	if err := checkVersion(res); err != nil {
		return err
	}
	slot.Version++
	return nil
}

// DeleteSlotTx removes the slot if it is still at the version the caller inspected.
func (s *SlotStore) DeleteSlotTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, version int) error {
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM slots WHERE id = ? AND version = ?"), id, version)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", id, err)
	}
	return checkVersion(res)
}

func (s *SlotStore) ListByVenueDate(ctx context.Context, venueID uuid.UUID, date string) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind("SELECT * FROM slots WHERE venue_id = ? AND date = ? ORDER BY start_time ASC"), venueID, date)
	return toSlots(rows), err
}

func (s *SlotStore) ListByVenueDateTx(ctx context.Context, tx *sqlx.Tx, venueID uuid.UUID, date string) ([]booking.Slot, error) {
	var rows []slotRow
	err := tx.SelectContext(ctx, &rows, tx.Rebind("SELECT * FROM slots WHERE venue_id = ? AND date = ? ORDER BY start_time ASC"), venueID, date)
	return toSlots(rows), err
}

// DeleteUnbookedByVenueDateTx deletes the date's slots that still hold no players and
// no accepted challenge, returning how many went.
func (s *SlotStore) DeleteUnbookedByVenueDateTx(ctx context.Context, tx *sqlx.Tx, venueID uuid.UUID, date string) (int64, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM slots
		WHERE venue_id = ? AND date = ? AND players = '[]' AND challenge_status <> ?`),
		venueID, date, booking.ChallengeAccepted)
	if err != nil {
		return 0, fmt.Errorf("delete slots for %s: %w", date, err)
	}
	return res.RowsAffected()
}

func (s *SlotStore) ListUpcomingByVenue(ctx context.Context, venueID uuid.UUID, now time.Time) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE venue_id = ? AND starts_at > ?
		ORDER BY starts_at ASC`), venueID, now.UTC())
	return toSlots(rows), err
}

func (s *SlotStore) ListOpenChallenges(ctx context.Context, now time.Time) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE challenge_status = ? AND opponent_id IS NULL AND challenge_refunded = ?
		AND booked_offline = ? AND status = ? AND starts_at > ?
		ORDER BY starts_at ASC`),
		booking.ChallengePending, false, false, booking.SlotAvailable, now.UTC())
	return toSlots(rows), err
}

// ListChallengeCandidates pre-filters on columns only; the fill threshold is applied by the caller.
func (s *SlotStore) ListChallengeCandidates(ctx context.Context, venueID uuid.UUID, now time.Time) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE venue_id = ? AND status = ? AND booked_offline = ? AND starts_at > ?
		AND (challenge_status NOT IN (?, ?) OR challenge_refunded = ?)
		ORDER BY starts_at ASC`),
		venueID, booking.SlotAvailable, false, now.UTC(), booking.ChallengePending, booking.ChallengeAccepted, true)
	return toSlots(rows), err
}

func (s *SlotStore) ListDueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE reminder_sent = ? AND starts_at > ? AND starts_at <= ? AND status IN (?, ?, ?)
		ORDER BY starts_at ASC`),
		false, now.UTC(), now.Add(lead).UTC(), booking.SlotAvailable, booking.SlotFull, booking.SlotBooked)
	return toSlots(rows), err
}

// MarkReminderSent claims the reminder for one slot. Only the first caller gets true.
func (s *SlotStore) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE slots SET reminder_sent = ? WHERE id = ? AND reminder_sent = ?"), true, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *SlotStore) ListElapsed(ctx context.Context, now time.Time) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE ends_at <= ? AND status NOT IN (?, ?)
		ORDER BY ends_at ASC`),
		now.UTC(), booking.SlotEnded, booking.SlotNoFull)
	return toSlots(rows), err
}

// ListRefundable returns pending, unjoined, unrefunded challenges created before cutoff.
func (s *SlotStore) ListRefundable(ctx context.Context, cutoff time.Time) ([]booking.Slot, error) {
	var rows []slotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT * FROM slots
		WHERE challenge_status = ? AND opponent_id IS NULL AND challenge_refunded = ? AND challenge_created_at < ?
		ORDER BY challenge_created_at ASC`),
		booking.ChallengePending, false, cutoff.UTC())
	return toSlots(rows), err
}
