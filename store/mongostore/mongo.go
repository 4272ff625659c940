// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zawamis/models"
	"zawamis/store"
)

const (
	usersCollection        = "users"
	documentsCollection    = "user_documents"
	applicationsCollection = "job_applications"
	messagesCollection     = "user_messages"
)

type Config struct {
	URI      string
	Database string
	// Transactions requires a replica set or sharded cluster. When false,
	// CreateAccount and DeleteAccount fall back to compensating deletes.
	Transactions   bool
	ConnectTimeout time.Duration
}

type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *slog.Logger
}

var _ store.Store = (*Store)(nil)

type accountRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	models.Account `bson:",inline"`
}

type documentRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id"`
	models.Document `bson:",inline"`
}

type applicationRecord struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	UserID                primitive.ObjectID `bson:"user_id"`
	models.JobApplication `bson:",inline"`
}

type messageRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         primitive.ObjectID `bson:"user_id"`
	models.Message `bson:",inline"`
}

// Open connects to MongoDB, pings it and makes sure the indexes exist.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client:       client,
		db:           client.Database(cfg.Database),
		transactions: cfg.Transactions,
		logger:       logger,
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("mongo store ready", "database", cfg.Database, "transactions", cfg.Transactions)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "id_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		documentsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		applicationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// objectID parses a store ID. Anything that is not an ObjectID cannot match
// a record, so it is reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

func accountFilter(key store.AccountKey, value string) (bson.M, error) {
	switch key {
	case store.KeyID:
		oid, err := objectID(value)
		if err != nil {
			return nil, err
		}
		return bson.M{"_id": oid}, nil
	case store.KeyEmail:
		return bson.M{"email": value}, nil
	case store.KeyIDNumber:
		return bson.M{"id_number": value}, nil
	}
	return nil, fmt.Errorf("unsupported account key %q", key)
}

func (s *Store) AccountExists(ctx context.Context, key store.AccountKey, value string) (bool, error) {
	filter, err := accountFilter(key, value)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := s.col(usersCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// withTx runs fn in a transaction when they are enabled, otherwise directly.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) CreateAccount(ctx context.Context, acc *models.Account, docs []models.Document) error {
	rec := accountRecord{ID: primitive.NewObjectID(), Account: *acc}
	docRecs := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		docRecs = append(docRecs, documentRecord{ID: primitive.NewObjectID(), UserID: rec.ID, Document: d})
	}

	err := s.withTx(ctx, func(ctx context.Context) error {
		if _, err := s.col(usersCollection).InsertOne(ctx, rec); err != nil {
			return err
		}
		if len(docRecs) == 0 {
			return nil
		}
		if _, err := s.col(documentsCollection).InsertMany(ctx, docRecs); err != nil {
			if !s.transactions {
				s.compensate(rec.ID)
			}
			return err
		}
		return nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	acc.ID = rec.ID.Hex()
	for i := range docs {
		docs[i].AccountID = acc.ID
	}
	return nil
}

// compensate removes a half-written registration when transactions are off.
func (s *Store) compensate(userID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.col(documentsCollection).DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		s.logger.Error("compensating delete of documents failed", "user_id", userID.Hex(), "error", err)
	}
	if _, err := s.col(usersCollection).DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		s.logger.Error("compensating delete of account failed", "user_id", userID.Hex(), "error", err)
	}
}

func (s *Store) FindAccount(ctx context.Context, q store.AccountQuery) (*models.Account, error) {
	filter, err := accountFilter(q.Key, q.Value)
	if err != nil {
		return nil, err
	}
	if q.ActiveOnly {
		filter["is_active"] = true
	}
	var rec accountRecord
	err = s.col(usersCollection).FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	acc := rec.Account
	acc.ID = rec.ID.Hex()
	return &acc, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	cursor, err := s.col(usersCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []accountRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	out := make([]models.Account, 0, len(recs))
	for _, r := range recs {
		acc := r.Account
		acc.ID = r.ID.Hex()
		out = append(out, acc)
	}
	return out, nil
}

func (s *Store) ListDocuments(ctx context.Context, accountID string) ([]models.Document, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return nil, nil
	}
	cursor, err := s.col(documentsCollection).Find(ctx, bson.M{"user_id": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []documentRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	out := make([]models.Document, 0, len(recs))
	for _, r := range recs {
		d := r.Document
		d.AccountID = r.UserID.Hex()
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	userID, err := objectID(app.AccountID)
	if err != nil {
		return err
	}
	rec := applicationRecord{ID: primitive.NewObjectID(), UserID: userID, JobApplication: *app}
	if _, err := s.col(applicationsCollection).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	app.ID = rec.ID.Hex()
	return nil
}

func (s *Store) ListApplications(ctx context.Context, accountID string) ([]models.JobApplication, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return nil, nil
	}
	cursor, err := s.col(applicationsCollection).Find(ctx, bson.M{"user_id": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []applicationRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	out := make([]models.JobApplication, 0, len(recs))
	for _, r := range recs {
		a := r.JobApplication
		a.ID = r.ID.Hex()
		a.AccountID = r.UserID.Hex()
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	userID, err := objectID(msg.AccountID)
	if err != nil {
		return err
	}
	rec := messageRecord{ID: primitive.NewObjectID(), UserID: userID, Message: *msg}
	if _, err := s.col(messagesCollection).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID = rec.ID.Hex()
	return nil
}

func (s *Store) ListMessages(ctx context.Context, accountID string) ([]models.Message, error) {
	oid, err := objectID(accountID)
	if err != nil {
		return nil, nil
	}
	// ObjectIDs generated in this process grow with insertion, so _id
	// ascending keeps ties in insertion order.
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	cursor, err := s.col(messagesCollection).Find(ctx, bson.M{"user_id": oid}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []messageRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]models.Message, 0, len(recs))
	for _, r := range recs {
		m := r.Message
		m.ID = r.ID.Hex()
		m.AccountID = r.UserID.Hex()
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) updateOne(ctx context.Context, collection, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	return s.updateOne(ctx, usersCollection, accountID, bson.M{"is_active": active})
}

func (s *Store) ReplyToMessage(ctx context.Context, messageID, reply string, at time.Time) error {
	return s.updateOne(ctx, messagesCollection, messageID, bson.M{"admin_reply": reply, "reply_date": at})
}

func (s *Store) SetApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) error {
	return s.updateOne(ctx, applicationsCollection, applicationID, bson.M{"status": status})
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	oid, err := objectID(accountID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(ctx context.Context) error {
		for _, name := range []string{documentsCollection, applicationsCollection, messagesCollection} {
			if _, err := s.col(name).DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
				return fmt.Errorf("delete from %s: %w", name, err)
			}
		}
		res, err := s.col(usersCollection).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if res.DeletedCount == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
