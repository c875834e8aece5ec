package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	q "github.com/irfanhabeeb-002/foodshare/internal/queue"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// testSchema mirrors the production tables in SQLite form. The
// repositories bind all timestamps from Go and use ? placeholders, so
// the same statements run against both engines.
const testSchema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name  TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'USER',
    is_active     BOOLEAN NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);

CREATE TABLE refresh_tokens (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL,
    token_hash TEXT NOT NULL,
    expires_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL,
    revoked_at DATETIME
);

CREATE TABLE community_groups (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    admin_id     INTEGER NOT NULL,
    visibility   TEXT NOT NULL DEFAULT 'PRIVATE',
    member_limit INTEGER,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL
);

CREATE TABLE group_members (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id    INTEGER NOT NULL,
    user_id     INTEGER NOT NULL,
    status      TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT 'MEMBER',
    approved_by INTEGER,
    decided_at  DATETIME,
    joined_at   DATETIME NOT NULL,
    UNIQUE (group_id, user_id)
);

CREATE TABLE group_join_requests (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id   INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    message    TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX uq_join_requests_pending
    ON group_join_requests (group_id, user_id) WHERE status = 'PENDING';

CREATE TABLE food_posts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    title           TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    place_name      TEXT NOT NULL DEFAULT '',
    latitude        REAL,
    longitude       REAL,
    total_count     INTEGER NOT NULL,
    current_count   INTEGER NOT NULL,
    posted_by       INTEGER NOT NULL,
    group_id        INTEGER,
    available_until DATETIME NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL
);

CREATE TABLE food_claims (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id    INTEGER NOT NULL,
    user_id    INTEGER NOT NULL,
    claimed_at DATETIME NOT NULL,
    UNIQUE (post_id, user_id)
);

CREATE TABLE notifications (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    ref_id     INTEGER NOT NULL DEFAULT 0,
    is_read    BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE TABLE reports (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    reported_by INTEGER NOT NULL,
    post_id     INTEGER,
    user_id     INTEGER,
    reason      TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);
`

// newTestDB opens an in-memory SQLite database with the schema
// applied. The pool is capped at one connection so transactions
// serialize the same way row locks do in production.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []q.NotificationCreatedEvent
}

func (p *capturePublisher) Publish(_ context.Context, ev q.NotificationCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) byKind(kind string) []q.NotificationCreatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []q.NotificationCreatedEvent
	for _, ev := range p.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// testEnv bundles the repositories and services under test against one
// database.
type testEnv struct {
	db           *sql.DB
	publisher    *capturePublisher
	notifier     *Notifier
	reservations *ReservationService
	memberships  *MembershipService
	proximity    *ProximityService
	reports      *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	posts := repository.NewPostRepo(db)
	claims := repository.NewClaimRepo(db)
	groups := repository.NewGroupRepo(db)
	members := repository.NewMembershipRepo(db)
	requests := repository.NewJoinRequestRepo(db)
	notes := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)

	pub := &capturePublisher{}
	notifier := NewNotifier(notes, members, pub)
	return &testEnv{
		db:           db,
		publisher:    pub,
		notifier:     notifier,
		reservations: NewReservationService(posts, claims, members, notifier),
		memberships:  NewMembershipService(groups, members, requests, posts, notifier),
		proximity:    NewProximityService(posts),
		reports:      NewReportService(reports, posts, notifier),
	}
}

// postWindow is a default availability window comfortably in the
// future.
func postWindow() time.Time {
	return time.Now().UTC().Add(2 * time.Hour)
}

var testUserSeq uint64

// newUser inserts a bare user row and returns its id.
func (e *testEnv) newUser(t *testing.T) uint64 {
	t.Helper()
	testUserSeq++
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	res, err := e.db.Exec(
		`INSERT INTO users (email, password_hash, display_name, role, is_active, created_at, updated_at)
		 VALUES (?, 'x', ?, 'USER', 1, ?, ?)`,
		fmt.Sprintf("user%d@test.local", testUserSeq),
		fmt.Sprintf("user%d", testUserSeq), now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// newPost creates a public post with the given portion count through
// the service.
func (e *testEnv) newPost(t *testing.T, owner uint64, count uint32) uint64 {
	t.Helper()
	post, err := e.reservations.CreatePost(context.Background(), owner, PostInput{
		Title:          "leftover curry",
		PlaceName:      "community fridge",
		TotalCount:     count,
		AvailableUntil: time.Now().UTC().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	return post.ID
}

// currentCount reads the remaining portion count directly.
func (e *testEnv) currentCount(t *testing.T, postID uint64) int {
	t.Helper()
	var n int
	err := e.db.QueryRow(`SELECT current_count FROM food_posts WHERE id = ?`, postID).Scan(&n)
	require.NoError(t, err)
	return n
}
