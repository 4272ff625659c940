// Package store defines the entity store the handlers persist through and an
// in-memory implementation of it. Durable backends live in the mongostore and
// pgstore subpackages.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zawamis/models"
)

var (
	// ErrNotFound is returned when no record matches a lookup. Malformed IDs
	// are reported as not found too.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would break the email or
	// ID number uniqueness of accounts.
	ErrDuplicate = errors.New("duplicate account")
)

// AccountKey names a unique account attribute usable for lookups.
type AccountKey string

const (
	KeyID       AccountKey = "id"
	KeyEmail    AccountKey = "email"
	KeyIDNumber AccountKey = "id_number"
)

// AccountQuery selects a single account by a unique key.
type AccountQuery struct {
	Key        AccountKey
	Value      string
	ActiveOnly bool
}

func ActiveByID(id string) AccountQuery {
	return AccountQuery{Key: KeyID, Value: id, ActiveOnly: true}
}

func ActiveByEmail(email string) AccountQuery {
	return AccountQuery{Key: KeyEmail, Value: email, ActiveOnly: true}
}

type Store interface {
	// AccountExists reports whether any account, active or not, has value
	// for key.
	AccountExists(ctx context.Context, key AccountKey, value string) (bool, error)
	// CreateAccount persists the account and its documents atomically and
	// fills in the assigned IDs. It returns ErrDuplicate on a uniqueness
	// violation, in which case nothing is written.
	CreateAccount(ctx context.Context, acc *models.Account, docs []models.Document) error
	FindAccount(ctx context.Context, q AccountQuery) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	ListDocuments(ctx context.Context, accountID string) ([]models.Document, error)

	CreateApplication(ctx context.Context, app *models.JobApplication) error
	ListApplications(ctx context.Context, accountID string) ([]models.JobApplication, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns the account's messages, newest first. Messages
	// created at the same instant keep their insertion order.
	ListMessages(ctx context.Context, accountID string) ([]models.Message, error)

	SetAccountActive(ctx context.Context, accountID string, active bool) error
	ReplyToMessage(ctx context.Context, messageID, reply string, at time.Time) error
	SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error
	// DeleteAccount removes the account together with its documents,
	// applications and messages.
	DeleteAccount(ctx context.Context, accountID string) error

	Close(ctx context.Context) error
}

// LoadProfile gathers the account's dependents for the full projection.
func LoadProfile(ctx context.Context, s Store, acc models.Account) (*models.Profile, error) {
	docs, err := s.ListDocuments(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	msgs, err := s.ListMessages(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	apps, err := s.ListApplications(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return &models.Profile{Account: acc, Documents: docs, Messages: msgs, Applications: apps}, nil
}
