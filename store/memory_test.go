package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zawamis/models"
	"zawamis/store"
	"zawamis/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemoryStore() })
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.CreateAccount(ctx, storetest.NewAccount(1), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadProfile(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	acc := storetest.NewAccount(1)
	require.NoError(t, s.CreateAccount(ctx, acc, []models.Document{{DocumentType: models.DocumentPassportPhoto}}))
	require.NoError(t, s.CreateMessage(ctx, &models.Message{AccountID: acc.ID, Body: "hi"}))

	p, err := store.LoadProfile(ctx, s, *acc)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, p.Account.ID)
	assert.Len(t, p.Documents, 1)
	assert.Len(t, p.Messages, 1)
	assert.Empty(t, p.Applications)
}
