package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/game"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVenueGeneratesWeekOfSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)

	total := 0
	for day := 0; day < booking.DefaultDays; day++ {
		date := testNow.AddDate(0, 0, day).Format(booking.DateLayout)
		slots, err := f.slots.ListSlots(ctx, venue.ID, date)
		require.NoError(t, err)
		require.Len(t, slots, 18)
		assert.Equal(t, "05:00", slots[0].StartTime)
		assert.Equal(t, "23:00", slots[17].EndTime)
		total += len(slots)
	}
	assert.Equal(t, 126, total)

	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	assert.Equal(t, 1200, slot.PriceCents)
	g, err := f.games.GetGame(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Scheduled, g.Status)
}

func TestCreateVenueValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	_, err := f.venues.CreateVenue(ctx, owner.ID, VenueInput{Name: " ", MaxPlayers: 10})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.venues.CreateVenue(ctx, owner.ID, VenueInput{Name: "Pitch", MaxPlayers: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.venues.CreateVenue(ctx, uuid.New(), VenueInput{Name: "Pitch", MaxPlayers: 10})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	venues, err := f.venues.ListVenues(ctx)
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestBookSeatsFillsSlotAndReadiesGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	got, err := f.slots.BookSeats(ctx, slot.ID, alice.ID, 5, booking.SideAuto, true)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotAvailable, got.Status)
	assert.Len(t, got.TeamA, 3)
	assert.Len(t, got.TeamB, 2)

	got, err = f.slots.BookSeats(ctx, slot.ID, bob.ID, 5, booking.SideAuto, false)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotFull, got.Status)
	assert.Len(t, got.TeamA, 5)
	assert.Len(t, got.TeamB, 5)

	g, err := f.games.GetGame(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Ready, g.Status)

	_, err = f.slots.BookSeats(ctx, slot.ID, f.user(t, "carol").ID, 1, booking.SideAuto, false)
	assert.ErrorIs(t, err, booking.ErrSlotNotAvailable)

	got, err = f.slots.CancelBooking(ctx, slot.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotAvailable, got.Status)
	assert.Len(t, got.Players, 5)
	assert.Equal(t, []booking.PlayerPayment{{UserID: alice.ID, Paid: true}}, got.PaymentStatus)

	g, err = f.games.GetGame(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Scheduled, g.Status)

	_, err = f.slots.CancelBooking(ctx, slot.ID, bob.ID)
	assert.ErrorIs(t, err, booking.ErrNotBooked)

	assert.Contains(t, f.kinds(t, alice.ID), notify.BookingConfirmed)
}

func TestBookSeatsExplicitTeamOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")

	_, err := f.slots.BookSeats(ctx, slot.ID, f.user(t, "alice").ID, 4, booking.SideA, false)
	require.NoError(t, err)

	_, err = f.slots.BookSeats(ctx, slot.ID, f.user(t, "bob").ID, 2, booking.SideA, false)
	assert.ErrorIs(t, err, booking.ErrTeamCapacityExceeded)

	got, err := f.slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 4)
	assert.Equal(t, 1, got.Version)
}

func TestBookSeatsLastSeatRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")

	_, err := f.slots.BookSeats(ctx, slot.ID, f.user(t, "regular").ID, 9, booking.SideAuto, false)
	require.NoError(t, err)

	racers := []uuid.UUID{f.user(t, "racer-1").ID, f.user(t, "racer-2").ID}
	errs := make([]error, len(racers))
	var wg sync.WaitGroup
	for i, id := range racers {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.slots.BookSeats(ctx, slot.ID, id, 1, booking.SideAuto, false)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	got, err := f.slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 10)
	assert.Equal(t, booking.SlotFull, got.Status)
	require.NoError(t, got.CheckInvariants())
}

func TestBookSeatsRejectsPastSlot(t *testing.T) {
	f := newFixture(t)
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, testNow.Format(booking.DateLayout), "09:00")

	_, err := f.slots.BookSeats(context.Background(), slot.ID, f.user(t, "late").ID, 1, booking.SideAuto, false)
	assert.ErrorIs(t, err, booking.ErrSlotNotAvailable)
}

func TestAddAndDeleteSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, owner := f.venue(t, 10)
	stranger := f.user(t, "stranger")

	_, err := f.slots.AddSlot(ctx, venue.ID, stranger.ID, tomorrow, "23:00", "23:45")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.slots.AddSlot(ctx, venue.ID, owner.ID, tomorrow, "23:45", "23:00")
	assert.ErrorIs(t, err, booking.ErrInvalidTime)

	added, err := f.slots.AddSlot(ctx, venue.ID, owner.ID, tomorrow, "23:00", "23:45")
	require.NoError(t, err)
	assert.Equal(t, "23:00", added.StartTime)
	assert.Equal(t, booking.SlotAvailable, added.Status)

	_, err = f.slots.AddSlot(ctx, venue.ID, owner.ID, tomorrow, "23:00", "23:30")
	assert.ErrorIs(t, err, booking.ErrSlotExists)

	_, err = f.games.GetGame(ctx, added.ID)
	require.NoError(t, err)

	_, err = f.slots.BookSeats(ctx, added.ID, stranger.ID, 1, booking.SideAuto, false)
	require.NoError(t, err)
	assert.ErrorIs(t, f.slots.DeleteSlot(ctx, added.ID, owner.ID), booking.ErrSlotHasPlayers)

	_, err = f.slots.CancelBooking(ctx, added.ID, stranger.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.slots.DeleteSlot(ctx, added.ID, stranger.ID), apperr.ErrForbidden)
	require.NoError(t, f.slots.DeleteSlot(ctx, added.ID, owner.ID))

	_, err = f.slots.GetSlot(ctx, added.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.games.GetGame(ctx, added.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResetSlotsForDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, owner := f.venue(t, 10)
	old := f.slotAt(t, venue.ID, tomorrow, "05:00")
	booked := f.slotAt(t, venue.ID, tomorrow, "18:00")
	player := f.user(t, "player")

	_, err := f.slots.BookSeats(ctx, booked.ID, player.ID, 2, booking.SideAuto, false)
	require.NoError(t, err)

	_, err = f.slots.ResetSlotsForDate(ctx, venue.ID, owner.ID, tomorrow)
	assert.ErrorIs(t, err, booking.ErrSlotHasPlayers)

	slots, err := f.slots.ListSlots(ctx, venue.ID, tomorrow)
	require.NoError(t, err)
	assert.Len(t, slots, 18)

	_, err = f.slots.CancelBooking(ctx, booked.ID, player.ID)
	require.NoError(t, err)

	_, err = f.slots.ResetSlotsForDate(ctx, venue.ID, f.user(t, "stranger").ID, tomorrow)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.slots.ResetSlotsForDate(ctx, venue.ID, owner.ID, "11/03/2026")
	assert.ErrorIs(t, err, booking.ErrInvalidDate)

	fresh, err := f.slots.ResetSlotsForDate(ctx, venue.ID, owner.ID, tomorrow)
	require.NoError(t, err)
	require.Len(t, fresh, 16)

	slots, err = f.slots.ListSlots(ctx, venue.ID, tomorrow)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, "06:00", slots[0].StartTime)
	assert.Equal(t, "22:00", slots[15].EndTime)

	_, err = f.games.GetGame(ctx, old.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.games.GetGame(ctx, slots[0].ID)
	assert.NoError(t, err)

	other, err := f.slots.ListSlots(ctx, venue.ID, testNow.AddDate(0, 0, 2).Format(booking.DateLayout))
	require.NoError(t, err)
	assert.Len(t, other, 18)
}

func TestSetOfflineBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, owner := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	player := f.user(t, "player")

	_, err := f.slots.SetOfflineBooking(ctx, slot.ID, player.ID, true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.slots.SetOfflineBooking(ctx, slot.ID, owner.ID, true)
	require.NoError(t, err)
	assert.True(t, got.BookedOffline)
	assert.Equal(t, booking.SlotReserved, got.Status)

	_, err = f.slots.BookSeats(ctx, slot.ID, player.ID, 1, booking.SideAuto, false)
	assert.ErrorIs(t, err, booking.ErrSlotNotAvailable)

	got, err = f.slots.SetOfflineBooking(ctx, slot.ID, owner.ID, false)
	require.NoError(t, err)
	assert.False(t, got.BookedOffline)
	assert.Equal(t, booking.SlotAvailable, got.Status)

	_, err = f.slots.BookSeats(ctx, slot.ID, player.ID, 1, booking.SideAuto, false)
	require.NoError(t, err)
	_, err = f.slots.SetOfflineBooking(ctx, slot.ID, owner.ID, true)
	assert.ErrorIs(t, err, booking.ErrSlotHasPlayers)
}

func TestCloseElapsedSlotsAndRecordResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, owner := f.venue(t, 2)
	full := f.slotAt(t, venue.ID, tomorrow, "18:00")
	empty := f.slotAt(t, venue.ID, tomorrow, "19:00")

	_, err := f.slots.BookSeats(ctx, full.ID, f.user(t, "a").ID, 1, booking.SideAuto, false)
	require.NoError(t, err)
	_, err = f.slots.BookSeats(ctx, full.ID, f.user(t, "b").ID, 1, booking.SideAuto, false)
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	closed, err := f.slots.CloseElapsedSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 126, closed)

	closed, err = f.slots.CloseElapsedSlots(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)

	got, err := f.slots.GetSlot(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotEnded, got.Status)
	g, err := f.games.GetGame(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Completed, g.Status)

	got, err = f.slots.GetSlot(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotNoFull, got.Status)
	g, err = f.games.GetGame(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Cancelled, g.Status)

	_, err = f.games.RecordResult(ctx, full.ID, f.user(t, "stranger").ID, 3, 1)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.games.RecordResult(ctx, empty.ID, owner.ID, 3, 1)
	assert.ErrorIs(t, err, game.ErrNotPlayable)

	_, err = f.games.RecordResult(ctx, full.ID, owner.ID, -1, 1)
	assert.ErrorIs(t, err, game.ErrInvalidScore)

	g, err = f.games.RecordResult(ctx, full.ID, owner.ID, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Completed, g.Status)

	stored, err := f.games.GetGame(ctx, full.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ScoreA)
	assert.Equal(t, 3, *stored.ScoreA)
	assert.Equal(t, 1, *stored.ScoreB)
}
