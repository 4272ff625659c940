package pgstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zawamis/store"
	"zawamis/store/storetest"
)

// Set ZAWAMIS_TEST_POSTGRES_DSN to a scratch database to run the suite. The
// tables are truncated before every subtest.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ZAWAMIS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ZAWAMIS_TEST_POSTGRES_DSN not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), Config{DSN: dsn, MaxOpenConns: 4, MaxIdleConns: 2}, logger)
		require.NoError(t, err)
		_, err = s.db.Exec(`TRUNCATE users, user_documents, job_applications, user_messages RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestParseID(t *testing.T) {
	n, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"", "0", "-1", "abc", "65f1c0ffee"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, store.ErrNotFound, bad)
	}
}

func TestAccountColumn(t *testing.T) {
	col, err := accountColumn(store.KeyIDNumber)
	require.NoError(t, err)
	assert.Equal(t, "id_number", col)

	_, err = accountColumn(store.AccountKey("phone"))
	assert.Error(t, err)
}
