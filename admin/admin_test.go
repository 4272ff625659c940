package admin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zawamis/files"
	"zawamis/models"
	"zawamis/store"
	"zawamis/store/storetest"
)

type fixture struct {
	admin *Admin
	store *store.MemoryStore
	out   *bytes.Buffer
	root  string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{store: store.NewMemoryStore(), out: &bytes.Buffer{}, root: t.TempDir()}
	f.admin = New(f.store, files.NewLocalStorage(f.root, "/media/"), f.out, nil)
	f.admin.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	return f.admin.Run(context.Background(), args)
}

func (f *fixture) account(t *testing.T, n int) *models.Account {
	t.Helper()
	acc := storetest.NewAccount(n)
	require.NoError(t, f.store.CreateAccount(context.Background(), acc, nil))
	return acc
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.run(t, "explode"), ErrUsage)
	assert.Contains(t, f.out.String(), "set-status")
	assert.ErrorIs(t, f.run(t), ErrUsage)
	assert.NoError(t, f.run(t, "help"))
}

func TestWrongArgumentCount(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.run(t, "activate"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "activate", "1", "2"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "set-status", "1"), ErrUsage)
	assert.Contains(t, f.out.String(), "usage: admin set-status")
}

func TestListAndToggleActive(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, 1)
	b := f.account(t, 2)

	require.NoError(t, f.run(t, "deactivate", b.ID))
	got, err := f.store.FindAccount(context.Background(), store.AccountQuery{Key: store.KeyID, Value: b.ID})
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, f.run(t, "list"))
	assert.Contains(t, f.out.String(), a.Email)
	assert.Contains(t, f.out.String(), b.Email)

	require.NoError(t, f.run(t, "list", "--inactive"))
	assert.NotContains(t, f.out.String(), a.Email)
	assert.Contains(t, f.out.String(), b.Email)

	require.NoError(t, f.run(t, "activate", b.ID))
	_, err = f.store.FindAccount(context.Background(), store.ActiveByID(b.ID))
	assert.NoError(t, err)

	assert.EqualError(t, f.run(t, "activate", "404"), "user 404 not found")
}

func TestReply(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 1)
	msg := &models.Message{AccountID: acc.ID, Body: "When is the interview?", CreatedAt: time.Now()}
	require.NoError(t, f.store.CreateMessage(context.Background(), msg))

	require.NoError(t, f.run(t, "reply", msg.ID, "Monday", "at", "nine"))
	msgs, err := f.store.ListMessages(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Monday at nine", msgs[0].AdminReply)
	require.NotNil(t, msgs[0].ReplyDate)
	assert.Equal(t, f.admin.now(), *msgs[0].ReplyDate)

	require.NoError(t, f.run(t, "messages", acc.ID))
	assert.Contains(t, f.out.String(), "Monday at nine")

	assert.EqualError(t, f.run(t, "reply", "999", "hi"), "message 999 not found")
	assert.Error(t, f.run(t, "reply", msg.ID, " "))
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 1)
	app := &models.JobApplication{AccountID: acc.ID, JobTitle: "Clerk", CV: "cv", CoverLetter: "cl", Status: models.StatusPending, ApplicationDate: time.Now()}
	require.NoError(t, f.store.CreateApplication(context.Background(), app))

	require.NoError(t, f.run(t, "set-status", app.ID, "Hired"))
	apps, err := f.store.ListApplications(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHired, apps[0].Status)

	require.NoError(t, f.run(t, "applications", acc.ID))
	assert.Contains(t, f.out.String(), "hired")

	assert.Error(t, f.run(t, "set-status", app.ID, "promoted"))
	assert.EqualError(t, f.run(t, "set-status", "999", "reviewed"), "application 999 not found")
}

func TestDeleteAccountRemovesFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storage := files.NewLocalStorage(f.root, "/media/")

	ref := "user_documents/2025/05/01/abc_passport.jpg"
	require.NoError(t, storage.Save(ctx, ref, strings.NewReader("jpeg"), 4, "image/jpeg"))
	acc := storetest.NewAccount(1)
	require.NoError(t, f.store.CreateAccount(ctx, acc, []models.Document{
		{DocumentType: models.DocumentPassportPhoto, File: ref, UploadedAt: time.Now()},
	}))
	require.NoError(t, f.store.CreateMessage(ctx, &models.Message{AccountID: acc.ID, Body: "hi", CreatedAt: time.Now()}))

	assert.Error(t, f.run(t, "delete-account", acc.ID))
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(ref)))
	require.NoError(t, err)

	require.NoError(t, f.run(t, "delete-account", "--yes", acc.ID))
	_, err = os.Stat(filepath.Join(f.root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))

	accounts, err := f.store.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	msgs, err := f.store.ListMessages(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.EqualError(t, f.run(t, "delete-account", "--yes", acc.ID), "user "+acc.ID+" not found")
}
