package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"zawamis/models"
)

// MemoryStore keeps everything in process memory. It is used by tests and
// by the "memory" store driver for local development.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	accounts map[string]models.Account
	order    []string
	docs     []models.Document
	apps     []models.JobApplication
	msgs     []models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]models.Account)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) nextID() string {
	s.seq++
	return strconv.FormatInt(s.seq, 10)
}

func matches(acc models.Account, key AccountKey, value string) bool {
	switch key {
	case KeyID:
		return acc.ID == value
	case KeyEmail:
		return acc.Email == value
	case KeyIDNumber:
		return acc.IDNumber == value
	}
	return false
}

func (s *MemoryStore) AccountExists(ctx context.Context, key AccountKey, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if matches(acc, key, value) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, acc *models.Account, docs []models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == acc.Email || existing.IDNumber == acc.IDNumber {
			return ErrDuplicate
		}
	}
	acc.ID = s.nextID()
	s.accounts[acc.ID] = *acc
	s.order = append(s.order, acc.ID)
	for i := range docs {
		docs[i].AccountID = acc.ID
		s.docs = append(s.docs, docs[i])
	}
	return nil
}

func (s *MemoryStore) FindAccount(ctx context.Context, q AccountQuery) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		acc := s.accounts[id]
		if matches(acc, q.Key, q.Value) && (!q.ActiveOnly || acc.IsActive) {
			return &acc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, accountID string) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, d := range s.docs {
		if d.AccountID == accountID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[app.AccountID]; !ok {
		return ErrNotFound
	}
	app.ID = s.nextID()
	s.apps = append(s.apps, *app)
	return nil
}

func (s *MemoryStore) ListApplications(ctx context.Context, accountID string) ([]models.JobApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.JobApplication
	for _, a := range s.apps {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[msg.AccountID]; !ok {
		return ErrNotFound
	}
	msg.ID = s.nextID()
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, accountID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []models.Message
	for _, m := range s.msgs {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()

	// s.msgs is in insertion order, so a stable sort keeps ties in it.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	acc.IsActive = active
	s.accounts[accountID] = acc
	return nil
}

func (s *MemoryStore) ReplyToMessage(ctx context.Context, messageID, reply string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == messageID {
			s.msgs[i].AdminReply = reply
			s.msgs[i].ReplyDate = &at
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == applicationID {
			s.apps[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, accountID)
	s.order = removeID(s.order, accountID)
	s.docs = filterOut(s.docs, func(d models.Document) bool { return d.AccountID == accountID })
	s.apps = filterOut(s.apps, func(a models.JobApplication) bool { return a.AccountID == accountID })
	s.msgs = filterOut(s.msgs, func(m models.Message) bool { return m.AccountID == accountID })
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func filterOut[T any](items []T, drop func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}
