package mongostore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zawamis/store"
	"zawamis/store/storetest"
)

// The suite needs a running MongoDB. Set ZAWAMIS_TEST_MONGO_URI to run it;
// set ZAWAMIS_TEST_MONGO_TX=1 when the server is a replica set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("ZAWAMIS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ZAWAMIS_TEST_MONGO_URI not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := 0
	storetest.Run(t, func(t *testing.T) store.Store {
		n++
		cfg := Config{
			URI:          uri,
			Database:     fmt.Sprintf("zawamis_test_%d_%d", time.Now().UnixNano(), n),
			Transactions: os.Getenv("ZAWAMIS_TEST_MONGO_TX") == "1",
		}
		s, err := Open(context.Background(), cfg, logger)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.db.Drop(context.Background())
			_ = s.Close(context.Background())
		})
		return s
	})
}

func TestObjectIDRejectsMalformed(t *testing.T) {
	_, err := objectID("42")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = accountFilter(store.KeyID, "zzz")
	require.ErrorIs(t, err, store.ErrNotFound)

	f, err := accountFilter(store.KeyEmail, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", f["email"])
}
