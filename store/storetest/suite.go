// Package storetest holds behavior tests every store.Store implementation
// must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zawamis/models"
	"zawamis/store"
)

// Factory returns an empty store. It is called once per subtest and is
// responsible for releasing it through t.Cleanup.
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAccountWithDocuments", testCreateAccountWithDocuments},
		{"DuplicateEmail", testDuplicateEmail},
		{"DuplicateIDNumber", testDuplicateIDNumber},
		{"FindAccountActiveOnly", testFindAccountActiveOnly},
		{"UnknownAndMalformedIDs", testUnknownIDs},
		{"MessagesNewestFirst", testMessagesNewestFirst},
		{"ApplicationsAndStatus", testApplicationsAndStatus},
		{"ReplyToMessage", testReplyToMessage},
		{"DeleteAccountCascades", testDeleteAccountCascades},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// NewAccount returns a valid account with unique email and ID number
// derived from n.
func NewAccount(n int) *models.Account {
	return &models.Account{
		FirstName:        "Asha",
		LastName:         "Mushi",
		DateOfBirth:      time.Date(1998, 4, 2, 0, 0, 0, 0, time.UTC),
		PhoneNumber:      "0712345678",
		Email:            fmt.Sprintf("user%d@example.com", n),
		Gender:           models.GenderFemale,
		IDNumber:         fmt.Sprintf("ID%d", n),
		MaritalStatus:    models.MaritalSingle,
		FormFourNumber:   "S0101/0001/2014",
		PasswordHash:     "digest",
		RegistrationDate: base,
		IsActive:         true,
	}
}

func documentsFor() []models.Document {
	docs := make([]models.Document, 0, 3)
	for _, dt := range models.RegistrationDocuments {
		docs = append(docs, models.Document{DocumentType: dt, File: "user_documents/" + string(dt) + ".pdf", UploadedAt: base})
	}
	return docs
}

func mustCreate(t *testing.T, s store.Store, n int) *models.Account {
	t.Helper()
	acc := NewAccount(n)
	require.NoError(t, s.CreateAccount(context.Background(), acc, documentsFor()))
	require.NotEmpty(t, acc.ID)
	return acc
}

func testCreateAccountWithDocuments(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)

	docs, err := s.ListDocuments(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	seen := map[models.DocumentType]bool{}
	for _, d := range docs {
		assert.Equal(t, acc.ID, d.AccountID)
		seen[d.DocumentType] = true
	}
	assert.Len(t, seen, 3)

	got, err := s.FindAccount(ctx, store.ActiveByID(acc.ID))
	require.NoError(t, err)
	assert.Equal(t, acc.Email, got.Email)
	assert.Equal(t, "digest", got.PasswordHash)
	assert.True(t, got.DateOfBirth.Equal(acc.DateOfBirth))
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, 1)

	exists, err := s.AccountExists(ctx, store.KeyEmail, "user1@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := NewAccount(2)
	dup.Email = "user1@example.com"
	err = s.CreateAccount(ctx, dup, documentsFor())
	assert.ErrorIs(t, err, store.ErrDuplicate)

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1, "a rejected registration must not leave rows behind")
}

func testDuplicateIDNumber(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, 1)

	exists, err := s.AccountExists(ctx, store.KeyIDNumber, "ID1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.AccountExists(ctx, store.KeyIDNumber, "ID9")
	require.NoError(t, err)
	assert.False(t, exists)

	dup := NewAccount(2)
	dup.IDNumber = "ID1"
	assert.ErrorIs(t, s.CreateAccount(ctx, dup, documentsFor()), store.ErrDuplicate)
}

func testFindAccountActiveOnly(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)

	_, err := s.FindAccount(ctx, store.ActiveByEmail(acc.Email))
	require.NoError(t, err)

	require.NoError(t, s.SetAccountActive(ctx, acc.ID, false))
	_, err = s.FindAccount(ctx, store.ActiveByEmail(acc.Email))
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindAccount(ctx, store.ActiveByID(acc.ID))
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.FindAccount(ctx, store.AccountQuery{Key: store.KeyID, Value: acc.ID})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func testUnknownIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, 1)
	for _, id := range []string{"999999", "not-an-id", ""} {
		_, err := s.FindAccount(ctx, store.ActiveByID(id))
		assert.ErrorIs(t, err, store.ErrNotFound, "id %q", id)
	}
	assert.ErrorIs(t, s.SetAccountActive(ctx, "999999", false), store.ErrNotFound)
}

func testMessagesNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)
	other := mustCreate(t, s, 2)

	create := func(owner, body string, at time.Time) {
		t.Helper()
		require.NoError(t, s.CreateMessage(ctx, &models.Message{AccountID: owner, Body: body, CreatedAt: at}))
	}
	create(acc.ID, "first", base.Add(1*time.Minute))
	create(acc.ID, "third", base.Add(3*time.Minute))
	create(other.ID, "elsewhere", base.Add(5*time.Minute))
	create(acc.ID, "tie-a", base.Add(2*time.Minute))
	create(acc.ID, "tie-b", base.Add(2*time.Minute))

	msgs, err := s.ListMessages(ctx, acc.ID)
	require.NoError(t, err)
	bodies := make([]string, 0, len(msgs))
	for _, m := range msgs {
		bodies = append(bodies, m.Body)
		assert.NotEmpty(t, m.ID)
	}
	assert.Equal(t, []string{"third", "tie-a", "tie-b", "first"}, bodies)
}

func testApplicationsAndStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)

	app := &models.JobApplication{
		AccountID:       acc.ID,
		JobTitle:        "Driver",
		CV:              "applications/cv/cv.pdf",
		CoverLetter:     "applications/cover_letters/cl.pdf",
		Status:          models.StatusPending,
		ApplicationDate: base,
	}
	require.NoError(t, s.CreateApplication(ctx, app))
	require.NotEmpty(t, app.ID)

	require.NoError(t, s.SetApplicationStatus(ctx, app.ID, models.StatusReviewed))
	apps, err := s.ListApplications(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusReviewed, apps[0].Status)
	assert.Equal(t, "Driver", apps[0].JobTitle)

	assert.ErrorIs(t, s.SetApplicationStatus(ctx, "999999", models.StatusHired), store.ErrNotFound)
}

func testReplyToMessage(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)
	msg := &models.Message{AccountID: acc.ID, Body: "hello", CreatedAt: base}
	require.NoError(t, s.CreateMessage(ctx, msg))

	at := base.Add(time.Hour)
	require.NoError(t, s.ReplyToMessage(ctx, msg.ID, "received", at))

	msgs, err := s.ListMessages(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "received", msgs[0].AdminReply)
	require.NotNil(t, msgs[0].ReplyDate)
	assert.True(t, msgs[0].ReplyDate.Equal(at))

	assert.ErrorIs(t, s.ReplyToMessage(ctx, "999999", "x", at), store.ErrNotFound)
}

func testDeleteAccountCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := mustCreate(t, s, 1)
	keep := mustCreate(t, s, 2)
	require.NoError(t, s.CreateMessage(ctx, &models.Message{AccountID: acc.ID, Body: "bye", CreatedAt: base}))
	require.NoError(t, s.CreateMessage(ctx, &models.Message{AccountID: keep.ID, Body: "stay", CreatedAt: base}))
	require.NoError(t, s.CreateApplication(ctx, &models.JobApplication{AccountID: acc.ID, JobTitle: "Clerk", Status: models.StatusPending, ApplicationDate: base}))

	require.NoError(t, s.DeleteAccount(ctx, acc.ID))

	_, err := s.FindAccount(ctx, store.AccountQuery{Key: store.KeyID, Value: acc.ID})
	assert.ErrorIs(t, err, store.ErrNotFound)
	docs, err := s.ListDocuments(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	msgs, err := s.ListMessages(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	apps, err := s.ListApplications(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, apps)

	msgs, err = s.ListMessages(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	docs, err = s.ListDocuments(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	exists, err := s.AccountExists(ctx, store.KeyEmail, acc.Email)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.DeleteAccount(ctx, acc.ID), store.ErrNotFound)
}
