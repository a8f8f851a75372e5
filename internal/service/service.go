package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/store"
	"github.com/jmoiron/sqlx"
)

// maxAttempts bounds the optimistic read-modify-write retries on a single entity.
const maxAttempts = 5

// Stores bundles the sqlx stores the services share.
type Stores struct {
	Venues        *store.VenueStore
	Slots         *store.SlotStore
	Games         *store.GameStore
	Teams         *store.TeamStore
	Users         *store.UserStore
	Notifications *store.NotificationStore
}

func NewStores(db *sqlx.DB) *Stores {
	return &Stores{
		Venues:        store.NewVenueStore(db),
		Slots:         store.NewSlotStore(db),
		Games:         store.NewGameStore(db),
		Teams:         store.NewTeamStore(db),
		Users:         store.NewUserStore(db),
		Notifications: store.NewNotificationStore(db),
	}
}

type Option func(*base)

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// WithLocation sets the zone slot dates and clock times are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(b *base) { b.loc = loc }
}

type base struct {
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

func newBase(opts []Option) base {
	b := base{
		logger: slog.Default(),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// retryOnConflict reruns fn while it loses the version check. Any other outcome is returned as is.
func retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
