package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "reviews"

type reviewDocument struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"product_id"`
	UserID    string    `bson:"user_id"`
	Username  string    `bson:"username"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) ReviewRepository {
	return &mongoRepository{collection: db.Collection(CollectionName)}
}

func (m *mongoRepository) InsertReview(ctx context.Context, r *domain.Review) error {
	doc := reviewDocument{
		ID:        r.ID.String(),
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Username:  r.Username,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (m *mongoRepository) GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var doc reviewDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return fromDocument(doc)
}

func (m *mongoRepository) ListByProduct(ctx context.Context, productID string, limit int64) ([]*domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.collection.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]*domain.Review, 0)
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode review: %w", err)
		}
		r, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("review cursor: %w", err)
	}
	return reviews, nil
}

func (m *mongoRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the collection's indexes; it is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return (&mongoRepository{collection: db.Collection(CollectionName)}).CreateIndexes(ctx)
}

func fromDocument(doc reviewDocument) (*domain.Review, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid review id %q: %w", doc.ID, err)
	}
	return &domain.Review{
		ID:        id,
		ProductID: doc.ProductID,
		UserID:    doc.UserID,
		Username:  doc.Username,
		Rating:    doc.Rating,
		Comment:   doc.Comment,
		CreatedAt: doc.CreatedAt,
	}, nil
}
