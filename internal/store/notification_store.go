package store

import (
	"context"

	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationStore struct {
	db *sqlx.DB
}

var _ notify.Sink = (*NotificationStore)(nil)

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *notify.Notification) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO notifications (id, user_id, type, title, message, link, is_read, created_at)
		VALUES (:id, :user_id, :type, :title, :message, :link, :is_read, :created_at)`, n)
	return err
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]notify.Notification, error) {
	notes := []notify.Notification{}
	query := "SELECT * FROM notifications WHERE user_id = ?"
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC"
	err := s.db.SelectContext(ctx, &notes, s.db.Rebind(query), userID)
	return notes, err
}

func (s *NotificationStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?"), true, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
