package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/i18n"
	"github.com/AdamBeresnev/pitch-league/internal/notify"
	"github.com/AdamBeresnev/pitch-league/internal/roster"
	users "github.com/AdamBeresnev/pitch-league/internal/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const tomorrow = "2026-03-11"

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db         *sqlx.DB
	clock      *testClock
	stores     *Stores
	venues     *VenueService
	slots      *SlotService
	challenges *ChallengeService
	teams      *TeamService
	games      *GameService
	reminders  *ReminderService
	users      *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{now: testNow}
	stores := NewStores(db)
	notifier := notify.NewNotifier(stores.Notifications, i18n.NewTranslator("en"), "en", nil)
	opt := WithClock(clock.Now)

	return &fixture{
		db:         db,
		clock:      clock,
		stores:     stores,
		venues:     NewVenueService(db, stores, opt),
		slots:      NewSlotService(db, stores, notifier, opt),
		challenges: NewChallengeService(db, stores, notifier, opt),
		teams:      NewTeamService(stores, notifier, opt),
		games:      NewGameService(stores, opt),
		reminders:  NewReminderService(stores, notifier, 2*time.Hour, opt),
		users:      NewUserService(stores, opt),
	}
}

func (f *fixture) user(t *testing.T, name string) *users.User {
	t.Helper()
	u, err := f.users.EnsureUser(context.Background(), name)
	require.NoError(t, err)
	return u
}

func (f *fixture) venue(t *testing.T, capacity int) (*booking.Venue, *users.User) {
	t.Helper()
	owner := f.user(t, "owner-"+uuid.NewString()[:8])
	venue, err := f.venues.CreateVenue(context.Background(), owner.ID, VenueInput{Name: "Riverside", PriceCents: 1200, MaxPlayers: capacity})
	require.NoError(t, err)
	return venue, owner
}

// slotAt finds the venue's slot on date starting at start.
func (f *fixture) slotAt(t *testing.T, venueID uuid.UUID, date, start string) *booking.Slot {
	t.Helper()
	slots, err := f.slots.ListSlots(context.Background(), venueID, date)
	require.NoError(t, err)
	for i := range slots {
		if slots[i].StartTime == start {
			return &slots[i]
		}
	}
	require.FailNowf(t, "slot not found", "%s %s", date, start)
	return nil
}

func (f *fixture) team(t *testing.T, name string) (*roster.Team, *users.User) {
	t.Helper()
	owner := f.user(t, name+"-owner")
	team, err := f.teams.CreateTeam(context.Background(), owner.ID, name, "")
	require.NoError(t, err)
	return team, owner
}

// kinds lists the notification types a user has received, newest first.
func (f *fixture) kinds(t *testing.T, userID uuid.UUID) []notify.Kind {
	t.Helper()
	notes, err := f.users.ListNotifications(context.Background(), userID, false)
	require.NoError(t, err)
	out := make([]notify.Kind, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Kind)
	}
	return out
}
