package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "carts"

var ErrCartNotFound = errors.New("cart not found")

// Prices are stored as strings so no precision is lost through BSON doubles.
type lineDocument struct {
	ProductID string    `bson:"product_id"`
	Name      string    `bson:"name"`
	ImageURL  string    `bson:"image_url,omitempty"`
	UnitPrice string    `bson:"unit_price"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

type cartDocument struct {
	Key       string         `bson:"session_key"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{collection: db.Collection(CollectionName)}
}

func (m *mongoRepository) GetCart(ctx context.Context, key string) (*domain.Snapshot, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"session_key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDocument(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, snapshot *domain.Snapshot) error {
	now := time.Now().UTC()
	snapshot.UpdatedAt = now

	lines := make([]lineDocument, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		lines = append(lines, lineDocument{
			ProductID: l.ProductID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice.String(),
			Quantity:  l.Quantity,
			AddedAt:   l.AddedAt,
		})
	}

	filter := bson.M{"session_key": snapshot.Key}
	update := bson.M{
		"$set": bson.M{
			"lines":      lines,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, key string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"session_key": key})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60), // 30 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the collection's indexes; it is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return (&mongoRepository{collection: db.Collection(CollectionName)}).CreateIndexes(ctx)
}

func fromDocument(doc cartDocument) (*domain.Snapshot, error) {
	s := &domain.Snapshot{
		Key:       doc.Key,
		Lines:     make([]domain.Line, 0, len(doc.Lines)),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, l := range doc.Lines {
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price for %s: %w", l.ProductID, err)
		}
		s.Lines = append(s.Lines, domain.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: price,
			Quantity:  l.Quantity,
			AddedAt:   l.AddedAt,
		})
	}
	return s, nil
}
