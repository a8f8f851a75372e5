package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	InviteReceived    Kind = "invite_received"
	InviteAccepted    Kind = "invite_accepted"
	InviteDeclined    Kind = "invite_declined"
	InviteCancelled   Kind = "invite_cancelled"
	JoinRequested     Kind = "join_requested"
	JoinAccepted      Kind = "join_accepted"
	JoinDeclined      Kind = "join_declined"
	MemberRemoved     Kind = "member_removed"
	TeamDeleted       Kind = "team_deleted"
	BookingConfirmed  Kind = "booking_confirmed"
	BookingDisplaced  Kind = "booking_displaced"
	ChallengeAccepted Kind = "challenge_accepted"
	ChallengeRejected Kind = "challenge_rejected"
	ChallengeRefunded Kind = "challenge_refunded"
	SlotReminder      Kind = "slot_reminder"
)

type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Kind      Kind      `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      string    `db:"link" json:"link"`
	Read      bool      `db:"is_read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Sink persists notifications. Delivery to the user happens elsewhere.
type Sink interface {
	Create(ctx context.Context, n *Notification) error
}

type Translator interface {
	T(locale, key string, data map[string]any) string
}

// Notifier renders and stores notifications without ever failing the caller.
type Notifier struct {
	sink       Sink
	translator Translator
	locale     string
	logger     *slog.Logger
	now        func() time.Time
}

func NewNotifier(sink Sink, translator Translator, locale string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sink:       sink,
		translator: translator,
		locale:     locale,
		logger:     logger,
		now:        time.Now,
	}
}

// Notify creates one notification. Errors are logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, kind Kind, link string, data map[string]any) {
	note := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     n.translator.T(n.locale, string(kind)+"_title", data),
		Message:   n.translator.T(n.locale, string(kind)+"_message", data),
		Link:      link,
		CreatedAt: n.now().UTC(),
	}
	if err := n.sink.Create(ctx, note); err != nil {
		n.logger.Warn("notification dropped", "user_id", userID, "type", kind, "error", err)
	}
}

func (n *Notifier) NotifyAll(ctx context.Context, userIDs []uuid.UUID, kind Kind, link string, data map[string]any) {
	for _, id := range userIDs {
		n.Notify(ctx, id, kind, link, data)
	}
}
