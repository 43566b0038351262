package db

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

// MongoStore keeps transactions in the "payments" collection, one document
// per tran_id, and candidate profiles in "users", one per email.
type MongoStore struct {
	collection *mongo.Collection
	users      *mongo.Collection
}

type paymentDocument struct {
	ID          string                `bson:"_id"`
	Amount      primitive.Decimal128  `bson:"amount"`
	Currency    string                `bson:"currency"`
	Status      string                `bson:"status"`
	Name        string                `bson:"name,omitempty"`
	Email       string                `bson:"email,omitempty"`
	PackageName string                `bson:"package_name,omitempty"`
	Score       *primitive.Decimal128 `bson:"score,omitempty"`
	CreatedAt   time.Time             `bson:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at"`
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: database.Collection("payments"),
		users:      database.Collection("users"),
	}
}

// EnsureIndexes creates the indexes used by List and the unique email index
// SaveUser upserts on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		log.Printf("Failed to create indexes: %v", err)
		return errors.Wrap(err, "create indexes")
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Failed to create user indexes: %v", err)
		return errors.Wrap(err, "create user indexes")
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, tx *models.Transaction) error {
	doc, err := toDocument(tx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrTransactionExists
		}
		return errors.Wrap(err, "insert payment")
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc paymentDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, errors.Wrapf(err, "find payment %s", id)
	}
	return fromDocument(&doc), nil
}

// SetStatus relies on the status filter so that concurrent callbacks cannot
// both move the same document out of pending.
func (s *MongoStore) SetStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "status": string(models.StatusPending)}
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc paymentDocument
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromDocument(&doc), true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, errors.Wrapf(err, "update payment %s", id)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Status == status {
		return current, false, nil
	}
	return current, false, models.ErrStatusConflict
}

func (s *MongoStore) SetScore(ctx context.Context, id string, score decimal.Decimal) (*models.Transaction, error) {
	value, err := primitive.ParseDecimal128(score.String())
	if err != nil {
		return nil, errors.Wrap(err, "encode score")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"score": value, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc paymentDocument
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, errors.Wrapf(err, "update score %s", id)
	}
	return fromDocument(&doc), nil
}

func (s *MongoStore) List(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if status != "" {
		query["status"] = string(status)
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(int64(limit))

	cur, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find payments")
	}
	defer cur.Close(ctx)

	var docs []paymentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode payments")
	}

	txs := make([]models.Transaction, 0, len(docs))
	for i := range docs {
		txs = append(txs, *fromDocument(&docs[i]))
	}
	return txs, nil
}

func toDocument(tx *models.Transaction) (*paymentDocument, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return nil, errors.Wrap(err, "encode amount")
	}
	doc := &paymentDocument{
		ID:          tx.TransactionID,
		Amount:      amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Name:        tx.Name,
		Email:       tx.Email,
		PackageName: tx.PackageName,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
	if tx.Score.Valid {
		score, err := primitive.ParseDecimal128(tx.Score.Decimal.String())
		if err != nil {
			return nil, errors.Wrap(err, "encode score")
		}
		doc.Score = &score
	}
	return doc, nil
}

func fromDocument(doc *paymentDocument) *models.Transaction {
	tx := &models.Transaction{
		TransactionID: doc.ID,
		Currency:      doc.Currency,
		Status:        models.PaymentStatus(doc.Status),
		Name:          doc.Name,
		Email:         doc.Email,
		PackageName:   doc.PackageName,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if d, err := decimal.NewFromString(doc.Amount.String()); err == nil {
		tx.Amount = d
	}
	if doc.Score != nil {
		if d, err := decimal.NewFromString(doc.Score.String()); err == nil {
			tx.Score = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return tx
}

func (s *MongoStore) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updated_at": user.UpdatedAt}
	if user.FullName != "" {
		set["fullname"] = user.FullName
	}
	if user.Number != "" {
		set["number"] = user.Number
	}
	if user.Address != "" {
		set["address"] = user.Address
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": user.ID, "created_at": user.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"email": user.Email}, update, opts).Decode(&saved); err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}
	return &saved, nil
}

func (s *MongoStore) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(int64(limit))
	cur, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}
