package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/roster"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

type teamRow struct {
	ID           uuid.UUID                                `db:"id"`
	Name         string                                   `db:"name"`
	Avatar       string                                   `db:"avatar"`
	OwnerID      uuid.UUID                                `db:"owner_id"`
	Seats        jsonColumn[[roster.TeamSize]roster.Seat] `db:"seats"`
	Invites      jsonColumn[[]roster.Invite]              `db:"invites"`
	JoinRequests jsonColumn[[]roster.JoinRequest]         `db:"join_requests"`
	Version      int                                      `db:"version"`
	CreatedAt    time.Time                                `db:"created_at"`
}

func toTeamRow(t *roster.Team) teamRow {
	return teamRow{
		ID:           t.ID,
		Name:         t.Name,
		Avatar:       t.Avatar,
		OwnerID:      t.OwnerID,
		Seats:        jsonColumn[[roster.TeamSize]roster.Seat]{V: t.Seats},
		Invites:      jsonColumn[[]roster.Invite]{V: nonNil(t.Invites)},
		JoinRequests: jsonColumn[[]roster.JoinRequest]{V: nonNil(t.JoinRequests)},
		Version:      t.Version,
		CreatedAt:    t.CreatedAt.UTC(),
	}
}

func (r *teamRow) toTeam() *roster.Team {
	return &roster.Team{
		ID:           r.ID,
		Name:         r.Name,
		Avatar:       r.Avatar,
		OwnerID:      r.OwnerID,
		Seats:        r.Seats.V,
		Invites:      nonNil(r.Invites.V),
		JoinRequests: nonNil(r.JoinRequests.V),
		Version:      r.Version,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func toTeams(rows []teamRow) []roster.Team {
	teams := make([]roster.Team, 0, len(rows))
	for i := range rows {
		teams = append(teams, *rows[i].toTeam())
	}
	return teams
}

func (s *TeamStore) CreateTeam(ctx context.Context, team *roster.Team) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO teams (id, name, avatar, owner_id, seats, invites, join_requests, version, created_at)
		VALUES (:id, :name, :avatar, :owner_id, :seats, :invites, :join_requests, :version, :created_at)`, toTeamRow(team))
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*roster.Team, error) {
	var row teamRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT * FROM teams WHERE id = ?"), id); err != nil {
		return nil, notFound(err)
	}
	return row.toTeam(), nil
}

func (s *TeamStore) ListTeams(ctx context.Context) ([]roster.Team, error) {
	var rows []teamRow
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM teams ORDER BY name ASC")
	return toTeams(rows), err
}

// UpdateTeam is a compare-and-swap on team.Version.
func (s *TeamStore) UpdateTeam(ctx context.Context, team *roster.Team) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE teams SET
		name = :name,
		avatar = :avatar,
		seats = :seats,
		invites = :invites,
		join_requests = :join_requests,
		version = version + 1
		WHERE id = :id AND version = :version`, toTeamRow(team))
	if err != nil {
		return fmt.Errorf("update team %s: %w", team.ID, err)
	}
	if err := checkVersion(res); err != nil {
		return err
	}
	team.Version++
	return nil
}

func (s *TeamStore) DeleteTeam(ctx context.Context, id uuid.UUID, version int) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM teams WHERE id = ? AND version = ?"), id, version)
	if err != nil {
		return fmt.Errorf("delete team %s: %w", id, err)
	}
	return checkVersion(res)
}

// ListWithPendingRequest narrows on the JSON text; callers re-check each team in Go.
func (s *TeamStore) ListWithPendingRequest(ctx context.Context, userID uuid.UUID) ([]roster.Team, error) {
	var rows []teamRow
	pattern := fmt.Sprintf(`%%"user_id":"%s","status":"%s"%%`, userID, roster.RequestPending)
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind("SELECT * FROM teams WHERE join_requests LIKE ?"), pattern)
	if err != nil {
		return nil, err
	}
	teams := make([]roster.Team, 0, len(rows))
	for _, t := range toTeams(rows) {
		if t.HasPendingRequest(userID) {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (s *TeamStore) ListWithPendingInvite(ctx context.Context, userID uuid.UUID) ([]roster.Team, error) {
	var rows []teamRow
	pattern := fmt.Sprintf(`%%"user_id":"%s"%%`, userID)
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind("SELECT * FROM teams WHERE invites LIKE ?"), pattern)
	if err != nil {
		return nil, err
	}
	teams := make([]roster.Team, 0, len(rows))
	for _, t := range toTeams(rows) {
		if _, ok := t.PendingInvite(userID); ok {
			teams = append(teams, t)
		}
	}
	return teams, nil
}
