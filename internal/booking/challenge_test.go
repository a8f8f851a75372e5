package booking

import (
	"testing"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestChallenge(t *testing.T) {
	s := newTestSlot(t, 10)
	challenger := uuid.New()

	require.NoError(t, s.RequestChallenge(challenger, true, testNow))

	assert.Equal(t, ChallengePending, s.Challenge.Status)
	assert.Equal(t, challenger, *s.Challenge.ChallengerID)
	assert.Nil(t, s.Challenge.OpponentID)
	assert.True(t, s.Challenge.Payment.ChallengerPaid)
	assert.True(t, s.HasOpenChallenge())
	assert.False(t, s.EligibleForChallenge(testNow))
	require.NoError(t, s.CheckInvariants())

	err := s.RequestChallenge(uuid.New(), false, testNow)
	assert.ErrorIs(t, err, ErrChallengeExists)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRequestChallengeRejectsUnavailableSlot(t *testing.T) {
	offline := newTestSlot(t, 10)
	require.NoError(t, offline.SetBookedOffline(true))
	assert.ErrorIs(t, offline.RequestChallenge(uuid.New(), false, testNow), ErrSlotNotAvailable)

	past := newTestSlot(t, 10)
	assert.ErrorIs(t, past.RequestChallenge(uuid.New(), false, past.StartsAt), ErrSlotNotAvailable)
}

func TestAcceptChallengeFillThreshold(t *testing.T) {
	tests := []struct {
		name    string
		booked  int
		wantErr error
	}{
		{"empty slot", 0, nil},
		{"59 percent", 59, nil},
		{"60 percent", 60, ErrSlotOverfilled},
		{"75 percent", 75, ErrSlotOverfilled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSlot(t, 100)
			player := uuid.New()
			if tt.booked > 0 {
				require.NoError(t, s.Book(player, tt.booked, SideAuto, false, testNow))
			}
			require.NoError(t, s.RequestChallenge(uuid.New(), false, testNow))

			displaced, err := s.AcceptChallenge(uuid.New(), false, testNow)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, ChallengePending, s.Challenge.Status)
				assert.Len(t, s.Players, tt.booked)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, ChallengeAccepted, s.Challenge.Status)
			assert.Equal(t, SlotBooked, s.Status)
			assert.Empty(t, s.Players)
			assert.Empty(t, s.TeamA)
			assert.Empty(t, s.TeamB)
			assert.Empty(t, s.PaymentStatus)
			if tt.booked > 0 {
				assert.Equal(t, []uuid.UUID{player}, displaced)
			} else {
				assert.Empty(t, displaced)
			}
			require.NoError(t, s.CheckInvariants())
		})
	}
}

func TestAcceptChallengeSingleOpponent(t *testing.T) {
	s := newTestSlot(t, 10)
	challenger, opponent := uuid.New(), uuid.New()
	require.NoError(t, s.RequestChallenge(challenger, true, testNow))

	_, err := s.AcceptChallenge(opponent, true, testNow)
	require.NoError(t, err)
	assert.Equal(t, opponent, *s.Challenge.OpponentID)
	assert.True(t, s.Challenge.Payment.OpponentPaid)
	require.NotNil(t, s.Challenge.AcceptedAt)
	assert.Equal(t, testNow, *s.Challenge.AcceptedAt)

	_, err = s.AcceptChallenge(uuid.New(), true, testNow)
	assert.ErrorIs(t, err, ErrChallengeTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, opponent, *s.Challenge.OpponentID)

	assert.ErrorIs(t, s.CanDelete(), ErrChallengeActive)
	assert.ErrorIs(t, s.Book(uuid.New(), 1, SideAuto, false, testNow), ErrSlotNotAvailable)
}

func TestAcceptChallengeRejections(t *testing.T) {
	challenger := uuid.New()

	noChallenge := newTestSlot(t, 10)
	_, err := noChallenge.AcceptChallenge(uuid.New(), false, testNow)
	assert.ErrorIs(t, err, ErrChallengeNotPending)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	self := newTestSlot(t, 10)
	require.NoError(t, self.RequestChallenge(challenger, false, testNow))
	_, err = self.AcceptChallenge(challenger, false, testNow)
	assert.ErrorIs(t, err, ErrSelfChallenge)

	started := newTestSlot(t, 10)
	require.NoError(t, started.RequestChallenge(challenger, false, testNow))
	_, err = started.AcceptChallenge(uuid.New(), false, started.StartsAt)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	refunded := newTestSlot(t, 10)
	require.NoError(t, refunded.RequestChallenge(challenger, false, testNow))
	require.True(t, refunded.RefundIfNoOpponent(testNow.Add(25*time.Hour)))
	_, err = refunded.AcceptChallenge(uuid.New(), false, testNow)
	assert.ErrorIs(t, err, ErrChallengeRefunded)
}

func TestRefundIfNoOpponent(t *testing.T) {
	s := newTestSlot(t, 10)
	s.StartsAt = testNow.Add(72 * time.Hour)
	s.EndsAt = s.StartsAt.Add(time.Hour)
	require.NoError(t, s.RequestChallenge(uuid.New(), true, testNow))

	assert.False(t, s.RefundIfNoOpponent(testNow.Add(23*time.Hour+59*time.Minute)))
	assert.False(t, s.Challenge.Payment.Refunded)
	assert.False(t, s.RefundIfNoOpponent(testNow.Add(24*time.Hour)), "window is exclusive")

	assert.True(t, s.RefundIfNoOpponent(testNow.Add(24*time.Hour+time.Minute)))
	assert.True(t, s.Challenge.Payment.Refunded)
	assert.False(t, s.RefundIfNoOpponent(testNow.Add(24*time.Hour+2*time.Minute)), "already refunded")

	assert.False(t, s.Challenge.Active())
	assert.False(t, s.HasOpenChallenge())
	require.NoError(t, s.CheckInvariants())

	require.NoError(t, s.RequestChallenge(uuid.New(), false, testNow.Add(25*time.Hour)), "refunded challenge frees the slot")
	assert.False(t, s.Challenge.Payment.Refunded)
}

func TestRefundIfNoOpponentSkipsAccepted(t *testing.T) {
	s := newTestSlot(t, 10)
	require.NoError(t, s.RequestChallenge(uuid.New(), true, testNow))
	_, err := s.AcceptChallenge(uuid.New(), true, testNow)
	require.NoError(t, err)

	assert.False(t, s.RefundIfNoOpponent(testNow.Add(48*time.Hour)))
	assert.False(t, s.Challenge.Payment.Refunded)
}

func TestRejectChallenge(t *testing.T) {
	s := newTestSlot(t, 10)
	assert.ErrorIs(t, s.RejectChallenge(), ErrChallengeNotPending)

	require.NoError(t, s.RequestChallenge(uuid.New(), false, testNow))
	require.NoError(t, s.RejectChallenge())
	assert.Equal(t, ChallengeRejected, s.Challenge.Status)
	assert.False(t, s.Challenge.Active())
	assert.True(t, s.EligibleForChallenge(testNow))
	require.NoError(t, s.CheckInvariants())

	require.NoError(t, s.RequestChallenge(uuid.New(), false, testNow))
}

func TestEligibleForChallenge(t *testing.T) {
	s := newTestSlot(t, 10)
	assert.True(t, s.EligibleForChallenge(testNow))

	require.NoError(t, s.Book(uuid.New(), 5, SideAuto, false, testNow))
	assert.True(t, s.EligibleForChallenge(testNow))

	require.NoError(t, s.Book(uuid.New(), 1, SideAuto, false, testNow))
	assert.False(t, s.EligibleForChallenge(testNow), "60 percent filled")

	fresh := newTestSlot(t, 10)
	assert.False(t, fresh.EligibleForChallenge(fresh.StartsAt))
}
