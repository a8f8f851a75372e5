package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotFull      SlotStatus = "full"
	SlotReserved  SlotStatus = "reserved"
	SlotEnded     SlotStatus = "ended"
	SlotNoFull    SlotStatus = "nofull"
)

type TeamSide string

const (
	SideAuto TeamSide = ""
	SideA    TeamSide = "A"
	SideB    TeamSide = "B"
)

func ParseTeamSide(s string) (TeamSide, error) {
	switch TeamSide(s) {
	case SideAuto, SideA, SideB:
		return TeamSide(s), nil
	default:
		return SideAuto, ErrInvalidTeamSide
	}
}

type PlayerPayment struct {
	UserID uuid.UUID `json:"user_id"`
	Paid   bool      `json:"paid"`
}

// Slot is one bookable window at one venue on one date.
// Players may list the same user several times, once per seat held.
type Slot struct {
	ID            uuid.UUID       `json:"id"`
	VenueID       uuid.UUID       `json:"venue_id"`
	Date          string          `json:"date"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	MaxPlayers    int             `json:"max_players"`
	PriceCents    int             `json:"price_cents"`
	Status        SlotStatus      `json:"status"`
	BookedOffline bool            `json:"booked_offline"`
	Players       []uuid.UUID     `json:"players"`
	TeamA         []uuid.UUID     `json:"team_a"`
	TeamB         []uuid.UUID     `json:"team_b"`
	PaymentStatus []PlayerPayment `json:"payment_status"`
	Challenge     Challenge       `json:"challenge"`
	ReminderSent  bool            `json:"reminder_sent"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewSlot(venue Venue, startsAt, endsAt time.Time) Slot {
	return Slot{
		ID:            uuid.New(),
		VenueID:       venue.ID,
		Date:          startsAt.Format(DateLayout),
		StartTime:     startsAt.Format(TimeLayout),
		EndTime:       endsAt.Format(TimeLayout),
		StartsAt:      startsAt.UTC(),
		EndsAt:        endsAt.UTC(),
		MaxPlayers:    venue.MaxPlayers,
		PriceCents:    venue.PriceCents,
		Status:        SlotAvailable,
		Players:       []uuid.UUID{},
		TeamA:         []uuid.UUID{},
		TeamB:         []uuid.UUID{},
		PaymentStatus: []PlayerPayment{},
	}
}

func (s *Slot) CurrentPlayers() int {
	return len(s.Players)
}

// HalfCapacity is the per-team cap, rounded up.
func (s *Slot) HalfCapacity() int {
	return (s.MaxPlayers + 1) / 2
}

func (s *Slot) IsFull() bool {
	return len(s.Players) >= s.MaxPlayers
}

func (s *Slot) IsAvailable() bool {
	return s.Status == SlotAvailable && !s.BookedOffline && !s.IsFull()
}

func (s *Slot) IsClosed() bool {
	return s.Status == SlotEnded || s.Status == SlotNoFull
}

// DistinctPlayers returns each booked user once, in booking order.
func (s *Slot) DistinctPlayers() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(s.Players))
	out := make([]uuid.UUID, 0, len(s.Players))
	for _, p := range s.Players {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func (s *Slot) SeatsHeldBy(userID uuid.UUID) int {
	n := 0
	for _, p := range s.Players {
		if p == userID {
			n++
		}
	}
	return n
}

// Book appends userID once per seat. An explicit side must fit entirely in that team;
// without one, each seat goes to whichever team is smaller at that moment, ties to A.
func (s *Slot) Book(userID uuid.UUID, seats int, choice TeamSide, paid bool, now time.Time) error {
	if seats <= 0 {
		return ErrInvalidSeatCount
	}
	if !s.IsAvailable() || !IsUpcoming(s.StartsAt, now) {
		return ErrSlotNotAvailable
	}
	if len(s.Players)+seats > s.MaxPlayers {
		return ErrInsufficientCapacity
	}

	switch choice {
	case SideA:
		if len(s.TeamA)+seats > s.HalfCapacity() {
			return ErrTeamCapacityExceeded
		}
		for i := 0; i < seats; i++ {
			s.TeamA = append(s.TeamA, userID)
		}
	case SideB:
		if len(s.TeamB)+seats > s.HalfCapacity() {
			return ErrTeamCapacityExceeded
		}
		for i := 0; i < seats; i++ {
			s.TeamB = append(s.TeamB, userID)
		}
	case SideAuto:
		for i := 0; i < seats; i++ {
			if len(s.TeamB) < len(s.TeamA) {
				s.TeamB = append(s.TeamB, userID)
			} else {
				s.TeamA = append(s.TeamA, userID)
			}
		}
	default:
		return ErrInvalidTeamSide
	}

	for i := 0; i < seats; i++ {
		s.Players = append(s.Players, userID)
	}
	s.markPaid(userID, paid)
	if s.IsFull() {
		s.Status = SlotFull
	}
	return nil
}

// Cancel drops every seat held by userID and returns how many were released.
func (s *Slot) Cancel(userID uuid.UUID) (int, error) {
	if s.IsClosed() {
		return 0, ErrSlotClosed
	}
	var removed int
	s.Players, removed = without(s.Players, userID)
	if removed == 0 {
		return 0, ErrNotBooked
	}
	s.TeamA, _ = without(s.TeamA, userID)
	s.TeamB, _ = without(s.TeamB, userID)
	payments := s.PaymentStatus[:0]
	for _, p := range s.PaymentStatus {
		if p.UserID != userID {
			payments = append(payments, p)
		}
	}
	s.PaymentStatus = payments
	if s.Status == SlotFull {
		s.Status = SlotAvailable
	}
	return removed, nil
}

func (s *Slot) SetBookedOffline(offline bool) error {
	if s.IsClosed() {
		return ErrSlotClosed
	}
	if !offline {
		if s.BookedOffline {
			s.BookedOffline = false
			s.Status = SlotAvailable
		}
		return nil
	}
	if s.BookedOffline {
		return nil
	}
	if len(s.Players) > 0 {
		return ErrSlotHasPlayers
	}
	if s.Challenge.Active() {
		return ErrChallengeActive
	}
	if s.Status != SlotAvailable {
		return ErrSlotNotAvailable
	}
	s.BookedOffline = true
	s.Status = SlotReserved
	return nil
}

// CanDelete rejects slots that still carry bookings of either kind.
func (s *Slot) CanDelete() error {
	if len(s.Players) > 0 {
		return ErrSlotHasPlayers
	}
	if s.Challenge.Status == ChallengeAccepted {
		return ErrChallengeActive
	}
	return nil
}

// Close moves an elapsed slot to its terminal status. It reports false when nothing changed.
func (s *Slot) Close(now time.Time) bool {
	if s.IsClosed() || !HasEnded(s.EndsAt, now) {
		return false
	}
	switch s.Status {
	case SlotFull, SlotBooked, SlotReserved:
		s.Status = SlotEnded
	default:
		s.Status = SlotNoFull
	}
	return true
}

// EligibleForChallenge mirrors the listing filter: upcoming, under the fill threshold and unchallenged.
func (s *Slot) EligibleForChallenge(now time.Time) bool {
	return s.Status == SlotAvailable &&
		!s.BookedOffline &&
		IsUpcoming(s.StartsAt, now) &&
		BelowFillThreshold(len(s.Players), s.MaxPlayers) &&
		!s.Challenge.Active()
}

func (s *Slot) HasOpenChallenge() bool {
	return s.Challenge.Open() && !s.BookedOffline && s.Status == SlotAvailable
}

// CheckInvariants is run after every transition, before the slot is written back.
func (s *Slot) CheckInvariants() error {
	if s.MaxPlayers <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvariant, s.MaxPlayers)
	}
	if len(s.Players) > s.MaxPlayers {
		return fmt.Errorf("%w: %d players over capacity %d", ErrInvariant, len(s.Players), s.MaxPlayers)
	}
	if len(s.TeamA)+len(s.TeamB) != len(s.Players) {
		return fmt.Errorf("%w: teams hold %d seats, players %d", ErrInvariant, len(s.TeamA)+len(s.TeamB), len(s.Players))
	}
	if len(s.TeamA) > s.HalfCapacity() || len(s.TeamB) > s.HalfCapacity() {
		return fmt.Errorf("%w: team over half capacity %d", ErrInvariant, s.HalfCapacity())
	}
	counts := make(map[uuid.UUID]int, len(s.Players))
	for _, p := range s.Players {
		counts[p]++
	}
	for _, p := range s.TeamA {
		counts[p]--
	}
	for _, p := range s.TeamB {
		counts[p]--
	}
	for user, n := range counts {
		if n != 0 {
			return fmt.Errorf("%w: team seats of %s do not match players", ErrInvariant, user)
		}
	}
	if s.Status == SlotFull && !s.IsFull() {
		return fmt.Errorf("%w: status full with %d/%d players", ErrInvariant, len(s.Players), s.MaxPlayers)
	}
	if s.IsFull() && s.Status != SlotFull && s.Status != SlotEnded {
		return fmt.Errorf("%w: %d/%d players but status %s", ErrInvariant, len(s.Players), s.MaxPlayers, s.Status)
	}
	if s.BookedOffline && s.Status == SlotAvailable {
		return fmt.Errorf("%w: offline slot marked available", ErrInvariant)
	}
	return s.Challenge.checkInvariants(s)
}

func (s *Slot) markPaid(userID uuid.UUID, paid bool) {
	for i := range s.PaymentStatus {
		if s.PaymentStatus[i].UserID == userID {
			s.PaymentStatus[i].Paid = s.PaymentStatus[i].Paid || paid
			return
		}
	}
	s.PaymentStatus = append(s.PaymentStatus, PlayerPayment{UserID: userID, Paid: paid})
}

func without(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, int) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(ids) - len(out)
}
