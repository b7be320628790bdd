package devseed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

var seedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newSeedServices(t *testing.T) (Services, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svcs := NewServices(mock)
	svcs.now = func() time.Time { return seedNow }
	return svcs, mock
}

func TestCreateEvent(t *testing.T) {
	svcs, mock := newSeedServices(t)
	ev := DefaultEvents()[0]
	wantDate := time.Date(2026, 3, 22, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO events .+ WHERE NOT EXISTS`).
		WithArgs(ev.Title, ev.Description, wantDate, ev.Location).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(ev.Title, ev.Description, wantDate, ev.Location).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := createEvent(context.Background(), svcs, ev)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = createEvent(context.Background(), svcs, ev)
	require.NoError(t, err)
	assert.False(t, created, "an existing title is left alone")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMember_CreatesAccountAndProfile(t *testing.T) {
	svcs, mock := newSeedServices(t)
	m := DefaultMembers()[0]

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(pgxmock.AnyArg(), "admin@besf.local", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(seedNow))
	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(pgxmock.AnyArg(), "admin@besf.local", pgxmock.AnyArg(), pgxmock.AnyArg(), domainauth.RoleAdmin).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "email", "username", "first_name", "last_name", "role", "created_at", "updated_at",
		}).AddRow("p-1", "pw|1", "admin@besf.local", (*string)(nil), (*string)(nil), (*string)(nil),
			domainauth.RoleAdmin, seedNow, seedNow))

	created, err := createMember(context.Background(), svcs, m)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMember_ExistingAccountIsSkipped(t *testing.T) {
	svcs, mock := newSeedServices(t)

	mock.ExpectQuery(`INSERT INTO accounts`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})

	created, err := createMember(context.Background(), svcs, DefaultMembers()[1])
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_CountsFailures(t *testing.T) {
	svcs, mock := newSeedServices(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for range DefaultEvents() {
		mock.ExpectExec(`INSERT INTO events`).WillReturnError(errors.New("connection reset"))
	}
	for range DefaultMembers() {
		mock.ExpectQuery(`INSERT INTO accounts`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	}

	err := Run(context.Background(), svcs, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 seed errors")
	require.NoError(t, mock.ExpectationsWereMet())
}
