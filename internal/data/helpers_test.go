package data

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (PgxPool, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock, mock
}

func strPtr(s string) *string { return &s }

var testTS = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
