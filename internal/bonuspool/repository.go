package bonuspool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no pool matches the lookup
var ErrNotFound = errors.New("bonus pool not found")

// Repository defines the interface for bonus pool data access
type Repository interface {
	Create(ctx context.Context, pool *BonusPool) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*BonusPool, error)
	GetByProjectID(ctx context.Context, projectID primitive.ObjectID) (*BonusPool, error)
	Update(ctx context.Context, pool *BonusPool) error
}

// MongoRepository implements Repository on a Mongo collection
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a Mongo-backed bonus pool repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("bonuspools")}
}

func (r *MongoRepository) Create(ctx context.Context, pool *BonusPool) error {
	if pool.ID.IsZero() {
		pool.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, pool); err != nil {
		return fmt.Errorf("failed to create bonus pool: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*BonusPool, error) {
	var pool BonusPool
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pool)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bonus pool: %w", err)
	}
	return &pool, nil
}

func (r *MongoRepository) GetByProjectID(ctx context.Context, projectID primitive.ObjectID) (*BonusPool, error) {
	var pool BonusPool
	err := r.collection.FindOne(ctx, bson.M{"project_id": projectID}).Decode(&pool)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bonus pool by project: %w", err)
	}
	return &pool, nil
}

func (r *MongoRepository) Update(ctx context.Context, pool *BonusPool) error {
	pool.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": pool.ID}, pool)
	if err != nil {
		return fmt.Errorf("failed to update bonus pool: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
