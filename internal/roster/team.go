package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TeamSize is the fixed length of every seat table. Seat 0 belongs to the owner.
const TeamSize = 8

type SeatStatus string

const (
	SeatEmpty   SeatStatus = "empty"
	SeatFilled  SeatStatus = "filled"
	SeatPending SeatStatus = "pending"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
)

type Seat struct {
	UserID *uuid.UUID `json:"user_id"`
	Status SeatStatus `json:"status"`
}

type Invite struct {
	UserID    uuid.UUID     `json:"user_id"`
	SlotIndex int           `json:"slot_index"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type JoinRequest struct {
	UserID    uuid.UUID     `json:"user_id"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type Team struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Avatar       string         `json:"avatar"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	Seats        [TeamSize]Seat `json:"seats"`
	Invites      []Invite       `json:"invites"`
	JoinRequests []JoinRequest  `json:"join_requests"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
}

func New(ownerID uuid.UUID, name, avatar string, now time.Time) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	t := &Team{
		ID:           uuid.New(),
		Name:         name,
		Avatar:       avatar,
		OwnerID:      ownerID,
		Invites:      []Invite{},
		JoinRequests: []JoinRequest{},
		CreatedAt:    now.UTC(),
	}
	for i := range t.Seats {
		t.Seats[i] = Seat{Status: SeatEmpty}
	}
	owner := ownerID
	t.Seats[0] = Seat{UserID: &owner, Status: SeatFilled}
	return t, nil
}

func (t *Team) IsOwner(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// SeatOf returns the index of the filled seat held by userID, or -1.
func (t *Team) SeatOf(userID uuid.UUID) int {
	for i, s := range t.Seats {
		if s.Status == SeatFilled && s.UserID != nil && *s.UserID == userID {
			return i
		}
	}
	return -1
}

func (t *Team) HasMember(userID uuid.UUID) bool {
	return t.SeatOf(userID) >= 0
}

// Members lists every seated user, owner first.
func (t *Team) Members() []uuid.UUID {
	var out []uuid.UUID
	for _, s := range t.Seats {
		if s.Status == SeatFilled && s.UserID != nil {
			out = append(out, *s.UserID)
		}
	}
	return out
}

func (t *Team) FirstEmptySeat() int {
	for i, s := range t.Seats {
		if s.Status == SeatEmpty {
			return i
		}
	}
	return -1
}

func (t *Team) PendingInvite(userID uuid.UUID) (int, bool) {
	for i, inv := range t.Invites {
		if inv.UserID == userID && inv.Status == RequestPending {
			return i, true
		}
	}
	return -1, false
}

func (t *Team) HasPendingRequest(userID uuid.UUID) bool {
	_, ok := t.pendingRequest(userID)
	return ok
}

func (t *Team) pendingRequest(userID uuid.UUID) (int, bool) {
	for i, r := range t.JoinRequests {
		if r.UserID == userID && r.Status == RequestPending {
			return i, true
		}
	}
	return -1, false
}

func (t *Team) requireOwner(actorID uuid.UUID) error {
	if !t.IsOwner(actorID) {
		return ErrNotOwner
	}
	return nil
}

func checkSeatIndex(idx int) error {
	if idx == 0 {
		return ErrOwnerSeat
	}
	if idx < 0 || idx >= TeamSize {
		return ErrInvalidSeat
	}
	return nil
}

// Invite offers seat idx to friendID and holds it as pending.
func (t *Team) Invite(actorID, friendID uuid.UUID, idx int, now time.Time) error {
	if err := t.requireOwner(actorID); err != nil {
		return err
	}
	if err := checkSeatIndex(idx); err != nil {
		return err
	}
	if friendID == t.OwnerID {
		return ErrSelfInvite
	}
	if t.HasMember(friendID) {
		return ErrAlreadyMember
	}
	if _, ok := t.PendingInvite(friendID); ok {
		return ErrInviteExists
	}
	if t.Seats[idx].Status != SeatEmpty {
		return ErrSeatTaken
	}
	t.Seats[idx] = Seat{Status: SeatPending}
	t.Invites = append(t.Invites, Invite{UserID: friendID, SlotIndex: idx, Status: RequestPending, CreatedAt: now.UTC()})
	return nil
}

// AcceptInvite seats userID on the invited seat and returns its index.
func (t *Team) AcceptInvite(userID uuid.UUID) (int, error) {
	i, ok := t.PendingInvite(userID)
	if !ok {
		return -1, ErrInviteNotFound
	}
	if t.HasMember(userID) {
		return -1, ErrAlreadyMember
	}
	idx := t.Invites[i].SlotIndex
	user := userID
	t.Seats[idx] = Seat{UserID: &user, Status: SeatFilled}
	t.Invites[i].Status = RequestAccepted
	t.DropJoinRequest(userID)
	return idx, nil
}

func (t *Team) DeclineInvite(userID uuid.UUID) (int, error) {
	i, ok := t.PendingInvite(userID)
	if !ok {
		return -1, ErrInviteNotFound
	}
	idx := t.Invites[i].SlotIndex
	t.Seats[idx] = Seat{Status: SeatEmpty}
	t.Invites[i].Status = RequestDeclined
	return idx, nil
}

// CancelInvite withdraws the pending invite on seat idx and returns the invitee.
func (t *Team) CancelInvite(actorID uuid.UUID, idx int) (uuid.UUID, error) {
	if err := t.requireOwner(actorID); err != nil {
		return uuid.Nil, err
	}
	if err := checkSeatIndex(idx); err != nil {
		return uuid.Nil, err
	}
	for i, inv := range t.Invites {
		if inv.SlotIndex == idx && inv.Status == RequestPending {
			t.Seats[idx] = Seat{Status: SeatEmpty}
			t.Invites[i].Status = RequestCancelled
			return inv.UserID, nil
		}
	}
	return uuid.Nil, ErrInviteNotFound
}

func (t *Team) RequestToJoin(userID uuid.UUID, now time.Time) error {
	if t.HasMember(userID) {
		return ErrAlreadyMember
	}
	if t.HasPendingRequest(userID) {
		return ErrRequestExists
	}
	t.JoinRequests = append(t.JoinRequests, JoinRequest{UserID: userID, Status: RequestPending, CreatedAt: now.UTC()})
	return nil
}

// AcceptJoinRequest seats userID on the lowest empty seat. A pending invite held by the
// same user is cancelled so they never occupy two seats.
func (t *Team) AcceptJoinRequest(actorID, userID uuid.UUID) (int, error) {
	if err := t.requireOwner(actorID); err != nil {
		return -1, err
	}
	i, ok := t.pendingRequest(userID)
	if !ok {
		return -1, ErrRequestNotFound
	}
	if t.HasMember(userID) {
		return -1, ErrAlreadyMember
	}
	inv, invited := t.PendingInvite(userID)
	if !invited && t.FirstEmptySeat() < 0 {
		return -1, ErrTeamFull
	}
	if invited {
		t.Seats[t.Invites[inv].SlotIndex] = Seat{Status: SeatEmpty}
		t.Invites[inv].Status = RequestCancelled
	}
	idx := t.FirstEmptySeat()
	user := userID
	t.Seats[idx] = Seat{UserID: &user, Status: SeatFilled}
	t.JoinRequests[i].Status = RequestAccepted
	return idx, nil
}

func (t *Team) DeclineJoinRequest(actorID, userID uuid.UUID) error {
	if err := t.requireOwner(actorID); err != nil {
		return err
	}
	i, ok := t.pendingRequest(userID)
	if !ok {
		return ErrRequestNotFound
	}
	t.JoinRequests[i].Status = RequestDeclined
	return nil
}

func (t *Team) CancelJoinRequest(userID uuid.UUID) error {
	i, ok := t.pendingRequest(userID)
	if !ok {
		return ErrRequestNotFound
	}
	t.JoinRequests = append(t.JoinRequests[:i], t.JoinRequests[i+1:]...)
	return nil
}

// DropJoinRequest removes every pending request from userID and reports whether any existed.
func (t *Team) DropJoinRequest(userID uuid.UUID) bool {
	kept := make([]JoinRequest, 0, len(t.JoinRequests))
	for _, r := range t.JoinRequests {
		if r.UserID != userID || r.Status != RequestPending {
			kept = append(kept, r)
		}
	}
	dropped := len(kept) != len(t.JoinRequests)
	t.JoinRequests = kept
	return dropped
}

// RemoveMember empties seat idx and returns the user who held it.
func (t *Team) RemoveMember(actorID uuid.UUID, idx int) (uuid.UUID, error) {
	if err := t.requireOwner(actorID); err != nil {
		return uuid.Nil, err
	}
	if err := checkSeatIndex(idx); err != nil {
		return uuid.Nil, err
	}
	seat := t.Seats[idx]
	if seat.Status != SeatFilled || seat.UserID == nil {
		return uuid.Nil, ErrSeatEmpty
	}
	t.Seats[idx] = Seat{Status: SeatEmpty}
	return *seat.UserID, nil
}

func (t *Team) CheckInvariants() error {
	owner := t.Seats[0]
	if owner.Status != SeatFilled || owner.UserID == nil || *owner.UserID != t.OwnerID {
		return fmt.Errorf("%w: seat 0 is not held by the owner", ErrInvariant)
	}

	seated := make(map[uuid.UUID]bool, TeamSize)
	pendingSeats := 0
	for i, s := range t.Seats {
		switch s.Status {
		case SeatFilled:
			if s.UserID == nil {
				return fmt.Errorf("%w: filled seat %d without user", ErrInvariant, i)
			}
			if seated[*s.UserID] {
				return fmt.Errorf("%w: %s holds more than one seat", ErrInvariant, *s.UserID)
			}
			seated[*s.UserID] = true
		case SeatPending:
			if s.UserID != nil {
				return fmt.Errorf("%w: pending seat %d has a user", ErrInvariant, i)
			}
			pendingSeats++
		case SeatEmpty:
			if s.UserID != nil {
				return fmt.Errorf("%w: empty seat %d has a user", ErrInvariant, i)
			}
		default:
			return fmt.Errorf("%w: seat %d has status %q", ErrInvariant, i, s.Status)
		}
	}

	pendingInvites := 0
	invited := make(map[uuid.UUID]bool)
	for _, inv := range t.Invites {
		if inv.Status != RequestPending {
			continue
		}
		pendingInvites++
		if inv.SlotIndex <= 0 || inv.SlotIndex >= TeamSize || t.Seats[inv.SlotIndex].Status != SeatPending {
			return fmt.Errorf("%w: invite for %s points at seat %d which is not pending", ErrInvariant, inv.UserID, inv.SlotIndex)
		}
		if invited[inv.UserID] {
			return fmt.Errorf("%w: %s has two pending invites", ErrInvariant, inv.UserID)
		}
		invited[inv.UserID] = true
	}
	if pendingInvites != pendingSeats {
		return fmt.Errorf("%w: %d pending seats but %d pending invites", ErrInvariant, pendingSeats, pendingInvites)
	}
	return nil
}
