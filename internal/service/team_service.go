package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/roster"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// JoinOutcome reports how AcceptJoinRequest resolved a request.
type JoinOutcome string

const (
	JoinSeated JoinOutcome = "seated"
	// JoinStale means the requester joined another team meanwhile and the request was dropped.
	JoinStale JoinOutcome = "stale"
)

type TeamService struct {
	base
	stores   *Stores
	notifier *notify.Notifier
}

func NewTeamService(stores *Stores, notifier *notify.Notifier, opts ...Option) *TeamService {
	return &TeamService{base: newBase(opts), stores: stores, notifier: notifier}
}

func teamLink(id uuid.UUID) string {
	return "/teams/" + id.String()
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*roster.Team, error) {
	return s.stores.Teams.GetTeam(ctx, id)
}

func (s *TeamService) ListTeams(ctx context.Context) ([]roster.Team, error) {
	return s.stores.Teams.ListTeams(ctx)
}

// ListPendingInvites returns the teams currently holding a seat for userID.
func (s *TeamService) ListPendingInvites(ctx context.Context, userID uuid.UUID) ([]roster.Team, error) {
	return s.stores.Teams.ListWithPendingInvite(ctx, userID)
}

// mutate is the team counterpart of mutateSlot.
func (s *TeamService) mutate(ctx context.Context, teamID uuid.UUID, fn func(team *roster.Team) error) (*roster.Team, error) {
	var updated *roster.Team
	err := retryOnConflict(ctx, func() error {
		team, err := s.stores.Teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := fn(team); err != nil {
			return err
		}
		if err := team.CheckInvariants(); err != nil {
			return err
		}
		if err := s.stores.Teams.UpdateTeam(ctx, team); err != nil {
			return err
		}
		updated = team
		return nil
	})
	return updated, err
}

// CreateTeam makes ownerID the owner on seat 0. Users already on a team cannot create another.
func (s *TeamService) CreateTeam(ctx context.Context, ownerID uuid.UUID, name, avatar string) (*roster.Team, error) {
	owner, err := s.stores.Users.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.InTeam() {
		return nil, roster.ErrAlreadyInTeam
	}
	team, err := roster.New(ownerID, name, avatar, s.now())
	if err != nil {
		return nil, err
	}

	claimed, err := s.stores.Users.ClaimTeam(ctx, ownerID, team.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, roster.ErrAlreadyInTeam
	}
	if err := s.stores.Teams.CreateTeam(ctx, team); err != nil {
		s.release(ctx, ownerID, team.ID)
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.purgeOtherRequests(ctx, ownerID, team.ID)
	s.logger.Info("team created", "team_id", team.ID, "owner_id", ownerID)
	return team, nil
}

// Invite holds seat idx for friendID and notifies them.
func (s *TeamService) Invite(ctx context.Context, teamID, actorID, friendID uuid.UUID, idx int) (*roster.Team, error) {
	friend, err := s.stores.Users.GetUser(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if friend.InOtherTeam(teamID) {
		return nil, roster.ErrAlreadyInTeam
	}

	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		return team.Invite(actorID, friendID, idx, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, friendID, notify.InviteReceived, teamLink(team.ID), map[string]any{"Team": team.Name})
	return team, nil
}

// AcceptInvite seats userID on the seat they were invited to. The user's back-reference
// is claimed first so a concurrent acceptance on another team cannot double-seat them.
func (s *TeamService) AcceptInvite(ctx context.Context, teamID, userID uuid.UUID) (*roster.Team, error) {
	user, err := s.stores.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.InOtherTeam(teamID) {
		return nil, roster.ErrAlreadyInTeam
	}
	claimed, err := s.stores.Users.ClaimTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, roster.ErrAlreadyInTeam
	}

	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		_, err := team.AcceptInvite(userID)
		return err
	})
	if err != nil {
		if !user.InTeam() {
			s.releaseUnseated(ctx, userID, teamID)
		}
		return nil, err
	}

	s.purgeOtherRequests(ctx, userID, teamID)
	data := map[string]any{"Team": team.Name, "User": user.Username}
	s.notifier.Notify(ctx, team.OwnerID, notify.InviteAccepted, teamLink(team.ID), data)
	s.notifier.Notify(ctx, userID, notify.JoinAccepted, teamLink(team.ID), data)
	return team, nil
}

// DeclineInvite empties the held seat and tells the owner.
func (s *TeamService) DeclineInvite(ctx context.Context, teamID, userID uuid.UUID) (*roster.Team, error) {
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		_, err := team.DeclineInvite(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, team.OwnerID, notify.InviteDeclined, teamLink(team.ID), map[string]any{"Team": team.Name, "User": s.username(ctx, userID)})
	return team, nil
}

func (s *TeamService) CancelInvite(ctx context.Context, teamID, actorID uuid.UUID, idx int) (*roster.Team, error) {
	var invitee uuid.UUID
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		var err error
		invitee, err = team.CancelInvite(actorID, idx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, invitee, notify.InviteCancelled, teamLink(team.ID), map[string]any{"Team": team.Name})
	return team, nil
}

// RequestToJoin files a join request. Any pending request the user has on another team
// is dropped first, so a user waits on one team at a time.
func (s *TeamService) RequestToJoin(ctx context.Context, teamID, userID uuid.UUID) (*roster.Team, error) {
	user, err := s.stores.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.InTeam() {
		return nil, roster.ErrAlreadyInTeam
	}
	if _, err := s.stores.Teams.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	s.purgeOtherRequests(ctx, userID, teamID)
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		return team.RequestToJoin(userID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, team.OwnerID, notify.JoinRequested, teamLink(team.ID), map[string]any{"Team": team.Name, "User": user.Username})
	return team, nil
}

// AcceptJoinRequest seats the requester on the lowest empty seat. When the requester
// has joined another team in the meantime the request is dropped and JoinStale returned.
func (s *TeamService) AcceptJoinRequest(ctx context.Context, teamID, actorID, userID uuid.UUID) (*roster.Team, JoinOutcome, error) {
	current, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, "", err
	}
	if !current.IsOwner(actorID) {
		return nil, "", roster.ErrNotOwner
	}
	user, err := s.stores.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if user.InOtherTeam(teamID) {
		team, err := s.dropStale(ctx, teamID, userID)
		return team, JoinStale, err
	}
	claimed, err := s.stores.Users.ClaimTeam(ctx, userID, teamID)
	if err != nil {
		return nil, "", err
	}
	if !claimed {
		team, err := s.dropStale(ctx, teamID, userID)
		return team, JoinStale, err
	}

	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		_, err := team.AcceptJoinRequest(actorID, userID)
		return err
	})
	if err != nil {
		if !user.InTeam() {
			s.releaseUnseated(ctx, userID, teamID)
		}
		return nil, "", err
	}

	s.purgeOtherRequests(ctx, userID, teamID)
	s.notifier.Notify(ctx, userID, notify.JoinAccepted, teamLink(team.ID), map[string]any{"Team": team.Name})
	return team, JoinSeated, nil
}

func (s *TeamService) dropStale(ctx context.Context, teamID, userID uuid.UUID) (*roster.Team, error) {
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		if !team.DropJoinRequest(userID) {
			return roster.ErrRequestNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stale join request dropped", "team_id", teamID, "user_id", userID)
	return team, nil
}

func (s *TeamService) DeclineJoinRequest(ctx context.Context, teamID, actorID, userID uuid.UUID) (*roster.Team, error) {
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		return team.DeclineJoinRequest(actorID, userID)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, userID, notify.JoinDeclined, teamLink(team.ID), map[string]any{"Team": team.Name})
	return team, nil
}

func (s *TeamService) CancelJoinRequest(ctx context.Context, teamID, userID uuid.UUID) (*roster.Team, error) {
	return s.mutate(ctx, teamID, func(team *roster.Team) error {
		return team.CancelJoinRequest(userID)
	})
}

// RemoveMember empties seat idx. Seat 0 is refused by the roster itself.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, actorID uuid.UUID, idx int) (*roster.Team, error) {
	var removed uuid.UUID
	team, err := s.mutate(ctx, teamID, func(team *roster.Team) error {
		var err error
		removed, err = team.RemoveMember(actorID, idx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.stores.Users.ReleaseTeam(ctx, removed, teamID); err != nil {
		s.logger.Warn("team back-reference not cleared", "team_id", teamID, "user_id", removed, "error", err)
	}
	s.notifier.Notify(ctx, removed, notify.MemberRemoved, teamLink(team.ID), map[string]any{"Team": team.Name})
	return team, nil
}

// DeleteTeam removes the team, then clears every member's back-reference and tells them.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, actorID uuid.UUID) error {
	var deleted *roster.Team
	err := retryOnConflict(ctx, func() error {
		team, err := s.stores.Teams.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.IsOwner(actorID) {
			return roster.ErrNotOwner
		}
		if err := s.stores.Teams.DeleteTeam(ctx, team.ID, team.Version); err != nil {
			return err
		}
		deleted = team
		return nil
	})
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		cleared, err := s.stores.Users.ClearTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("clear back-references: %w", err)
		}
		s.logger.Info("team deleted", "team_id", teamID, "cleared", cleared)
		return nil
	})
	g.Go(func() error {
		var members []uuid.UUID
		for _, id := range deleted.Members() {
			if id != actorID {
				members = append(members, id)
			}
		}
		s.notifier.NotifyAll(ctx, members, notify.TeamDeleted, "/teams", map[string]any{"Team": deleted.Name})
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("team deleted with stale back-references", "team_id", teamID, "error", err)
	}
	return nil
}

// purgeOtherRequests drops userID's pending requests on every team but keepTeamID.
// Failures are logged; the next purge picks up whatever is left.
func (s *TeamService) purgeOtherRequests(ctx context.Context, userID, keepTeamID uuid.UUID) {
	teams, err := s.stores.Teams.ListWithPendingRequest(ctx, userID)
	if err != nil {
		s.logger.Warn("pending requests not purged", "user_id", userID, "error", err)
		return
	}
	for _, t := range teams {
		if t.ID == keepTeamID {
			continue
		}
		_, err := s.mutate(ctx, t.ID, func(team *roster.Team) error {
			if !team.DropJoinRequest(userID) {
				return errUnchanged
			}
			return nil
		})
		if err != nil && !errors.Is(err, errUnchanged) {
			s.logger.Warn("pending request not purged", "team_id", t.ID, "user_id", userID, "error", err)
		}
	}
}

// releaseUnseated undoes a claim made by a failed accept, unless the team seats the user.
func (s *TeamService) releaseUnseated(ctx context.Context, userID, teamID uuid.UUID) {
	team, err := s.stores.Teams.GetTeam(ctx, teamID)
	if err != nil {
		s.logger.Warn("team claim left in place", "team_id", teamID, "user_id", userID, "error", err)
		return
	}
	if team.HasMember(userID) {
		return
	}
	s.release(ctx, userID, teamID)
}

func (s *TeamService) release(ctx context.Context, userID, teamID uuid.UUID) {
	if err := s.stores.Users.ReleaseTeam(ctx, userID, teamID); err != nil {
		s.logger.Warn("team claim not released", "team_id", teamID, "user_id", userID, "error", err)
	}
}

func (s *TeamService) username(ctx context.Context, userID uuid.UUID) string {
	user, err := s.stores.Users.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Username
}
