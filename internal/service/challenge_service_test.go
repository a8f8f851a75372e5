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
	"github.com/AdamBeresnev/pitch-league/internal/roster"
	users "github.com/AdamBeresnev/pitch-league/internal/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeJoinedOnceThenConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	teamA, ownerA := f.team(t, "Falcons")
	teamB, ownerB := f.team(t, "Herons")
	teamC, ownerC := f.team(t, "Otters")
	walkIn := f.user(t, "walk-in")

	_, err := f.slots.BookSeats(ctx, slot.ID, walkIn.ID, 3, booking.SideAuto, false)
	require.NoError(t, err)

	_, err = f.challenges.RequestChallenge(ctx, slot.ID, teamA.ID, ownerB.ID, true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.challenges.RequestChallenge(ctx, slot.ID, teamA.ID, ownerA.ID, true)
	require.NoError(t, err)
	assert.Equal(t, booking.ChallengePending, got.Challenge.Status)
	assert.True(t, got.Challenge.Payment.ChallengerPaid)

	open, err := f.challenges.ListOpenChallenges(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, slot.ID, open[0].ID)

	_, err = f.challenges.RequestChallenge(ctx, slot.ID, teamB.ID, ownerB.ID, false)
	assert.ErrorIs(t, err, booking.ErrChallengeExists)

	got, err = f.challenges.JoinChallenge(ctx, slot.ID, teamB.ID, ownerB.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.SlotBooked, got.Status)
	assert.Equal(t, booking.ChallengeAccepted, got.Challenge.Status)
	require.NotNil(t, got.Challenge.OpponentID)
	assert.Equal(t, teamB.ID, *got.Challenge.OpponentID)
	assert.True(t, got.Challenge.Payment.OpponentPaid)
	assert.Empty(t, got.Players)
	assert.Empty(t, got.TeamA)
	assert.Empty(t, got.TeamB)

	_, err = f.challenges.JoinChallenge(ctx, slot.ID, teamC.ID, ownerC.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	g, err := f.games.GetGame(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Ready, g.Status)

	assert.Contains(t, f.kinds(t, ownerA.ID), notify.ChallengeAccepted)
	assert.Contains(t, f.kinds(t, walkIn.ID), notify.BookingDisplaced)

	open, err = f.challenges.ListOpenChallenges(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	assert.ErrorIs(t, f.slots.DeleteSlot(ctx, slot.ID, venue.OwnerID), booking.ErrChallengeActive)
}

func TestAcceptChallengeFillThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	teamA, ownerA := f.team(t, "Falcons")
	teamB, ownerB := f.team(t, "Herons")
	regular := f.user(t, "regular")
	extra := f.user(t, "extra")

	_, err := f.slots.BookSeats(ctx, slot.ID, regular.ID, 5, booking.SideAuto, false)
	require.NoError(t, err)
	_, err = f.slots.BookSeats(ctx, slot.ID, extra.ID, 1, booking.SideAuto, false)
	require.NoError(t, err)

	eligible, err := f.challenges.ListEligibleSlots(ctx, venue.ID)
	require.NoError(t, err)
	for _, s := range eligible {
		assert.NotEqual(t, slot.ID, s.ID, "60% full slot must not be offered")
	}

	_, err = f.challenges.RequestChallenge(ctx, slot.ID, teamA.ID, ownerA.ID, false)
	require.NoError(t, err)

	_, err = f.challenges.AcceptChallenge(ctx, slot.ID, teamB.ID, ownerB.ID)
	assert.ErrorIs(t, err, booking.ErrSlotOverfilled)

	_, err = f.slots.CancelBooking(ctx, slot.ID, extra.ID)
	require.NoError(t, err)

	eligible, err = f.challenges.ListEligibleSlots(ctx, venue.ID)
	require.NoError(t, err)
	for _, s := range eligible {
		assert.NotEqual(t, slot.ID, s.ID, "challenged slot must not be offered")
	}

	got, err := f.challenges.AcceptChallenge(ctx, slot.ID, teamB.ID, ownerB.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ChallengeAccepted, got.Challenge.Status)
	assert.False(t, got.Challenge.Payment.OpponentPaid)
	assert.Empty(t, got.Players)

	_, err = f.challenges.AcceptChallenge(ctx, slot.ID, teamA.ID, ownerA.ID)
	assert.ErrorIs(t, err, booking.ErrChallengeTaken)
}

func TestRefundIfNoOpponent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	team, owner := f.team(t, "Falcons")

	_, err := f.challenges.RequestChallenge(ctx, slot.ID, team.ID, owner.ID, true)
	require.NoError(t, err)

	f.clock.Advance(23*time.Hour + 59*time.Minute)
	refunded, err := f.challenges.RefundIfNoOpponent(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, refunded)

	unchanged, err := f.slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.Version)

	f.clock.Advance(2 * time.Minute)
	refunded, err = f.challenges.RefundIfNoOpponent(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, refunded)

	refunded, err = f.challenges.RefundIfNoOpponent(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, refunded)

	got, err := f.slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, got.Challenge.Payment.Refunded)
	assert.Equal(t, booking.ChallengePending, got.Challenge.Status)
	assert.Contains(t, f.kinds(t, owner.ID), notify.ChallengeRefunded)

	rival, rivalOwner := f.team(t, "Herons")
	_, err = f.challenges.JoinChallenge(ctx, slot.ID, rival.ID, rivalOwner.ID)
	assert.ErrorIs(t, err, booking.ErrChallengeRefunded)
}

func TestSweepRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	team, owner := f.team(t, "Falcons")
	rival, rivalOwner := f.team(t, "Herons")

	for _, start := range []string{"17:00", "18:00", "19:00"} {
		_, err := f.challenges.RequestChallenge(ctx, f.slotAt(t, venue.ID, tomorrow, start).ID, team.ID, owner.ID, true)
		require.NoError(t, err)
	}
	_, err := f.challenges.JoinChallenge(ctx, f.slotAt(t, venue.ID, tomorrow, "19:00").ID, rival.ID, rivalOwner.ID)
	require.NoError(t, err)

	refunded, err := f.challenges.SweepRefunds(ctx)
	require.NoError(t, err)
	assert.Zero(t, refunded)

	f.clock.Advance(25 * time.Hour)
	refunded, err = f.challenges.SweepRefunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, refunded)

	refunded, err = f.challenges.SweepRefunds(ctx)
	require.NoError(t, err)
	assert.Zero(t, refunded)
}

func TestRejectChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, venueOwner := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "18:00")
	team, owner := f.team(t, "Falcons")

	_, err := f.challenges.RejectChallenge(ctx, slot.ID, venueOwner.ID)
	assert.ErrorIs(t, err, booking.ErrChallengeNotPending)

	_, err = f.challenges.RequestChallenge(ctx, slot.ID, team.ID, owner.ID, false)
	require.NoError(t, err)

	_, err = f.challenges.RejectChallenge(ctx, slot.ID, owner.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.challenges.RejectChallenge(ctx, slot.ID, venueOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ChallengeRejected, got.Challenge.Status)
	assert.Contains(t, f.kinds(t, owner.ID), notify.ChallengeRejected)

	got, err = f.challenges.RequestChallenge(ctx, slot.ID, team.ID, owner.ID, false)
	require.NoError(t, err)
	assert.Equal(t, booking.ChallengePending, got.Challenge.Status)
}

func TestConcurrentOpponentsOnlyOneSeated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	venue, _ := f.venue(t, 10)
	slot := f.slotAt(t, venue.ID, tomorrow, "19:00")
	challenger, challengerOwner := f.team(t, "Falcons")

	_, err := f.challenges.RequestChallenge(ctx, slot.ID, challenger.ID, challengerOwner.ID, true)
	require.NoError(t, err)

	type opponent struct {
		team  *roster.Team
		owner *users.User
	}
	var opponents []opponent
	for _, name := range []string{"Herons", "Otters", "Kestrels", "Badgers"} {
		team, owner := f.team(t, name)
		opponents = append(opponents, opponent{team: team, owner: owner})
	}

	errs := make([]error, len(opponents))
	var wg sync.WaitGroup
	for i, o := range opponents {
		i, o := i, o
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = f.challenges.JoinChallenge(ctx, slot.ID, o.team.ID, o.owner.ID)
			} else {
				_, errs[i] = f.challenges.AcceptChallenge(ctx, slot.ID, o.team.ID, o.owner.ID)
			}
		}()
	}
	wg.Wait()

	var winner uuid.UUID
	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			winner = opponents[i].team.ID
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	require.Equal(t, 1, succeeded)

	got, err := f.slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ChallengeAccepted, got.Challenge.Status)
	require.NotNil(t, got.Challenge.OpponentID)
	assert.Equal(t, winner, *got.Challenge.OpponentID)
	require.NoError(t, got.CheckInvariants())

	late, lateOwner := f.team(t, "Stoats")
	_, err = f.challenges.JoinChallenge(ctx, slot.ID, late.ID, lateOwner.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
