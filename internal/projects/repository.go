package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no project matches the lookup
	ErrNotFound = errors.New("project not found")
	// ErrDuplicateTitle is returned when the unique title constraint is hit.
	// The index is the authoritative guard; a race past the pre-check
	// surfaces as this same error.
	ErrDuplicateTitle = errors.New("a project with this title already exists")
)

// Repository defines the interface for project data access
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Project, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Project, int64, error)
	ListAll(ctx context.Context) ([]Project, error)
	SetBonusLink(ctx context.Context, projectID, poolID primitive.ObjectID, orderID string) error
	FindUnlinkedFunded(ctx context.Context, limit int) ([]Project, error)
}

// MongoRepository implements Repository on the projectlistings collection
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a Mongo-backed project repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("projectlistings")}
}

// EnsureIndexes creates the unique title index the registry relies on
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create title index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, project *Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, project); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Project, error) {
	var project Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *MongoRepository) TitleExists(ctx context.Context, title string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"project_title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return count > 0, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]Project, int64, error) {
	query := buildQuery(filter)

	skip := int64(filter.Page-1) * int64(filter.Limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(int64(filter.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	var results []Project
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("failed to decode projects: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return results, total, nil
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]Project, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var results []Project
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return results, nil
}

func (r *MongoRepository) SetBonusLink(ctx context.Context, projectID, poolID primitive.ObjectID, orderID string) error {
	update := bson.M{"$set": bson.M{
		"bonus_pool":                poolID,
		"bonus.funded":              true,
		"bonus.settlement_order_id": orderID,
		"updated_at":                time.Now(),
	}}
	result, err := r.collection.UpdateByID(ctx, projectID, update)
	if err != nil {
		return fmt.Errorf("failed to link bonus pool: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUnlinkedFunded returns funded-category projects whose bonus linkage
// never completed, oldest first.
func (r *MongoRepository) FindUnlinkedFunded(ctx context.Context, limit int) ([]Project, error) {
	query := bson.M{
		"category":   CategoryFunded,
		"bonus_pool": bson.M{"$exists": false},
	}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unlinked projects: %w", err)
	}
	var results []Project
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode unlinked projects: %w", err)
	}
	return results, nil
}

func buildQuery(filter ListFilter) bson.M {
	query := bson.M{}

	if filter.Search != "" {
		query["project_title"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	if filter.TechStack != "" {
		parts := strings.Split(filter.TechStack, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		query["tech_stack"] = bson.M{"$regex": strings.Join(parts, "|"), "$options": "i"}
	}
	switch filter.Budget {
	case BudgetFree:
		query["starting_bid"] = 0
	case BudgetMicro:
		query["starting_bid"] = bson.M{"$gt": 0, "$lt": 500}
	case BudgetLow:
		query["starting_bid"] = bson.M{"$gte": 500, "$lt": 2000}
	case BudgetMedium:
		query["starting_bid"] = bson.M{"$gte": 2000, "$lt": 10000}
	case BudgetHigh:
		query["starting_bid"] = bson.M{"$gte": 10000}
	}
	switch filter.Contributor {
	case TeamSolo:
		query["contributor_count"] = 1
	case TeamSmall:
		query["contributor_count"] = bson.M{"$gte": 2, "$lte": 4}
	case TeamMedium:
		query["contributor_count"] = bson.M{"$gte": 5, "$lte": 10}
	case TeamLarge:
		query["contributor_count"] = bson.M{"$gt": 10}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	return query
}
