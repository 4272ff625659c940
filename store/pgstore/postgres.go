// Package pgstore implements store.Store on PostgreSQL using the tables of
// the original relational schema.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"zawamis/models"
	"zawamis/store"
)

const uniqueViolation = "23505"

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdle     time.Duration
	ConnMaxLifetime time.Duration
	// PingTimeout bounds how long Open waits for the server to come up.
	PingTimeout time.Duration
}

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                BIGSERIAL PRIMARY KEY,
	first_name        VARCHAR(100) NOT NULL,
	middle_name       VARCHAR(100),
	last_name         VARCHAR(100) NOT NULL,
	date_of_birth     DATE NOT NULL,
	phone_number      VARCHAR(15) NOT NULL,
	email             VARCHAR(254) NOT NULL UNIQUE,
	gender            VARCHAR(10) NOT NULL,
	id_number         VARCHAR(20) NOT NULL UNIQUE,
	marital_status    VARCHAR(10) NOT NULL,
	form_four_number  VARCHAR(50) NOT NULL,
	password          VARCHAR(255) NOT NULL,
	registration_date TIMESTAMPTZ NOT NULL,
	is_active         BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS user_documents (
	id            BIGSERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	document_type VARCHAR(30) NOT NULL,
	file          VARCHAR(255) NOT NULL,
	uploaded_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS user_documents_user_id_idx ON user_documents (user_id);
CREATE TABLE IF NOT EXISTS job_applications (
	id               BIGSERIAL PRIMARY KEY,
	user_id          BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	job_title        VARCHAR(200) NOT NULL,
	cv               VARCHAR(255) NOT NULL,
	cover_letter     VARCHAR(255) NOT NULL,
	status           VARCHAR(10) NOT NULL DEFAULT 'pending',
	application_date TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS job_applications_user_id_idx ON job_applications (user_id);
CREATE TABLE IF NOT EXISTS user_messages (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message     TEXT NOT NULL,
	file        VARCHAR(255),
	file_name   VARCHAR(255),
	file_type   VARCHAR(100),
	created_at  TIMESTAMPTZ NOT NULL,
	admin_reply TEXT,
	reply_date  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS user_messages_user_created_idx ON user_messages (user_id, created_at DESC);
`

// Open connects, waits for the server with backoff and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 30 * time.Second
	}
	deadline := time.Now().Add(cfg.PingTimeout)
	backoff := 500 * time.Millisecond
	for {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		logger.Warn("postgres not ready yet", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("postgres store ready")
	return &Store{db: db}, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// parseID maps store IDs onto bigserial keys. IDs that cannot be keys
// cannot match a row.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, store.ErrNotFound
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func accountColumn(key store.AccountKey) (string, error) {
	switch key {
	case store.KeyID:
		return "id", nil
	case store.KeyEmail:
		return "email", nil
	case store.KeyIDNumber:
		return "id_number", nil
	}
	return "", fmt.Errorf("unsupported account key %q", key)
}

func accountArg(key store.AccountKey, value string) (any, error) {
	if key == store.KeyID {
		return parseID(value)
	}
	return value, nil
}

func (s *Store) AccountExists(ctx context.Context, key store.AccountKey, value string) (bool, error) {
	column, err := accountColumn(key)
	if err != nil {
		return false, err
	}
	arg, err := accountArg(key, value)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE `+column+` = $1)`, arg).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *models.Account, docs []models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `INSERT INTO users (first_name, middle_name, last_name, date_of_birth, phone_number, email, gender,
		id_number, marital_status, form_four_number, password, registration_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		acc.FirstName, nullString(acc.MiddleName), acc.LastName, acc.DateOfBirth, acc.PhoneNumber, acc.Email, acc.Gender,
		acc.IDNumber, acc.MaritalStatus, acc.FormFourNumber, acc.PasswordHash, acc.RegistrationDate, acc.IsActive,
	).Scan(&id)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	for _, d := range docs {
		_, err := tx.ExecContext(ctx, `INSERT INTO user_documents (user_id, document_type, file, uploaded_at) VALUES ($1, $2, $3, $4)`,
			id, d.DocumentType, d.File, d.UploadedAt)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.DocumentType, err)
		}
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("commit registration: %w", err)
	}

	acc.ID = formatID(id)
	for i := range docs {
		docs[i].AccountID = acc.ID
	}
	return nil
}

const accountColumns = `id, first_name, middle_name, last_name, date_of_birth, phone_number, email, gender,
	id_number, marital_status, form_four_number, password, registration_date, is_active`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		acc    models.Account
		id     int64
		middle sql.NullString
	)
	err := row.Scan(&id, &acc.FirstName, &middle, &acc.LastName, &acc.DateOfBirth, &acc.PhoneNumber, &acc.Email, &acc.Gender,
		&acc.IDNumber, &acc.MaritalStatus, &acc.FormFourNumber, &acc.PasswordHash, &acc.RegistrationDate, &acc.IsActive)
	if err != nil {
		return nil, err
	}
	acc.ID = formatID(id)
	acc.MiddleName = middle.String
	return &acc, nil
}

func (s *Store) FindAccount(ctx context.Context, q store.AccountQuery) (*models.Account, error) {
	column, err := accountColumn(q.Key)
	if err != nil {
		return nil, err
	}
	arg, err := accountArg(q.Key, q.Value)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + accountColumns + ` FROM users WHERE ` + column + ` = $1`
	if q.ActiveOnly {
		query += ` AND is_active`
	}
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var items []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, *acc)
	}
	return items, rows.Err()
}

func (s *Store) ListDocuments(ctx context.Context, accountID string) ([]models.Document, error) {
	id, err := parseID(accountID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT document_type, file, uploaded_at FROM user_documents WHERE user_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var items []models.Document
	for rows.Next() {
		d := models.Document{AccountID: accountID}
		if err := rows.Scan(&d.DocumentType, &d.File, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *Store) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	userID, err := parseID(app.AccountID)
	if err != nil {
		return err
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `INSERT INTO job_applications (user_id, job_title, cv, cover_letter, status, application_date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, app.JobTitle, app.CV, app.CoverLetter, app.Status, app.ApplicationDate).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	app.ID = formatID(id)
	return nil
}

func (s *Store) ListApplications(ctx context.Context, accountID string) ([]models.JobApplication, error) {
	userID, err := parseID(accountID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, job_title, cv, cover_letter, status, application_date
		FROM job_applications WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()
	var items []models.JobApplication
	for rows.Next() {
		var (
			app models.JobApplication
			id  int64
		)
		if err := rows.Scan(&id, &app.JobTitle, &app.CV, &app.CoverLetter, &app.Status, &app.ApplicationDate); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app.ID = formatID(id)
		app.AccountID = accountID
		items = append(items, app)
	}
	return items, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	userID, err := parseID(msg.AccountID)
	if err != nil {
		return err
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `INSERT INTO user_messages (user_id, message, file, file_name, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, msg.Body, nullString(msg.File), nullString(msg.FileName), nullString(msg.FileType), msg.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID = formatID(id)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, accountID string) ([]models.Message, error) {
	userID, err := parseID(accountID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, message, file, file_name, file_type, created_at, admin_reply, reply_date
		FROM user_messages WHERE user_id = $1 ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var items []models.Message
	for rows.Next() {
		var (
			m                               models.Message
			id                              int64
			file, fileName, fileType, reply sql.NullString
			replyDate                       sql.NullTime
		)
		if err := rows.Scan(&id, &m.Body, &file, &fileName, &fileType, &m.CreatedAt, &reply, &replyDate); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = formatID(id)
		m.AccountID = accountID
		m.File, m.FileName, m.FileType, m.AdminReply = file.String, fileName.String, fileType.String, reply.String
		if replyDate.Valid {
			t := replyDate.Time
			m.ReplyDate = &t
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *Store) exec(ctx context.Context, query, id string, args ...any) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, append(args, key)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	return s.exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, accountID, active)
}

func (s *Store) ReplyToMessage(ctx context.Context, messageID, reply string, at time.Time) error {
	return s.exec(ctx, `UPDATE user_messages SET admin_reply = $1, reply_date = $2 WHERE id = $3`, messageID, reply, at)
}

func (s *Store) SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	return s.exec(ctx, `UPDATE job_applications SET status = $1 WHERE id = $2`, applicationID, status)
}

// DeleteAccount relies on ON DELETE CASCADE for the dependents.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	return s.exec(ctx, `DELETE FROM users WHERE id = $1`, accountID)
}
