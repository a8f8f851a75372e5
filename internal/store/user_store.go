package store

import (
	"context"

	users "github.com/AdamBeresnev/pitch-league/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByUsernameQuery = "SELECT * FROM users WHERE username = ?"
	createUserQuery        = `
		INSERT INTO users (id, username, my_team_id, created_at) VALUES
		(:id, :username, :my_team_id, :created_at)
	`
	claimTeamQuery = `
		UPDATE users SET my_team_id = ?
		WHERE id = ? AND (my_team_id IS NULL OR my_team_id = ?)
	`
	releaseTeamQuery = "UPDATE users SET my_team_id = NULL WHERE id = ? AND my_team_id = ?"
	clearTeamQuery   = "UPDATE users SET my_team_id = NULL WHERE my_team_id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserQuery), id); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByUsernameQuery), username); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

// ClaimTeam points the user at teamID unless they already belong to another team.
func (s *UserStore) ClaimTeam(ctx context.Context, userID, teamID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(claimTeamQuery), teamID, userID, teamID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ReleaseTeam clears the back-reference only if it still points at teamID.
func (s *UserStore) ReleaseTeam(ctx context.Context, userID, teamID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(releaseTeamQuery), userID, teamID)
	return err
}

func (s *UserStore) ClearTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(clearTeamQuery), teamID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
