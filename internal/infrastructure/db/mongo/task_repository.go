package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/task-api/internal/core/domain"
)

const collectionTasks = "tasks"

// TaskRepository implements ports.TaskRepository using MongoDB. The owner is
// part of every filter, so tasks of other users are never loaded.
type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection(collectionTasks)}
}

type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Owner       primitive.ObjectID `bson:"owner"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// Create inserts a new task document.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	owner, err := primitive.ObjectIDFromHex(task.Owner)
	if err != nil {
		return domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoTask{
		ID:          primitive.NewObjectID(),
		Description: task.Description,
		Completed:   task.Completed,
		Owner:       owner,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w: %w", domain.ErrPersistence, err)
	}

	task.ID = doc.ID.Hex()
	return nil
}

// List returns the tasks matching filter.
func (r *TaskRepository) List(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	query, opts, ok := listQuery(f)
	if !ok {
		return []*domain.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w: %w", domain.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w: %w", domain.ErrPersistence, err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toDomain())
	}
	return tasks, nil
}

// FindByIDAndOwner retrieves one task of owner.
func (r *TaskRepository) FindByIDAndOwner(ctx context.Context, id, owner string) (*domain.Task, error) {
	filter, err := ownedFilter(id, owner)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoTask
	if err := r.coll.FindOne(ctx, filter).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w: %w", domain.ErrPersistence, err)
	}
	return mt.toDomain(), nil
}

// Update sets the given fields and returns the updated task.
func (r *TaskRepository) Update(ctx context.Context, id, owner string, update domain.TaskUpdate) (*domain.Task, error) {
	filter, err := ownedFilter(id, owner)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Completed != nil {
		set["completed"] = *update.Completed
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mt mongoTask
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w: %w", domain.ErrPersistence, err)
	}
	return mt.toDomain(), nil
}

// Delete removes one task of owner and returns the removed document.
func (r *TaskRepository) Delete(ctx context.Context, id, owner string) (*domain.Task, error) {
	filter, err := ownedFilter(id, owner)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoTask
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w: %w", domain.ErrPersistence, err)
	}
	return mt.toDomain(), nil
}

// DeleteByOwner removes every task of owner.
func (r *TaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return 0, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"owner": oid})
	if err != nil {
		return 0, fmt.Errorf("delete owner tasks: %w: %w", domain.ErrPersistence, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates necessary indexes on the tasks collection.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "completed", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// taskSortKeys whitelists the document keys a listing may sort on.
var taskSortKeys = map[string]string{
	"description": "description",
	"completed":   "completed",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// listQuery builds the owner-scoped filter and find options for f. ok is
// false when the owner is not a valid id, so nothing can match.
func listQuery(f domain.TaskFilter) (bson.M, *options.FindOptions, bool) {
	owner, err := primitive.ObjectIDFromHex(f.Owner)
	if err != nil {
		return nil, nil, false
	}

	query := bson.M{"owner": owner}
	if f.Completed != nil {
		query["completed"] = *f.Completed
	}

	opts := options.Find()
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}

	// _id breaks ties so pages stay stable.
	sort := bson.D{{Key: "_id", Value: 1}}
	if f.Sort != nil {
		if key, known := taskSortKeys[f.Sort.Field]; known {
			sort = append(bson.D{{Key: key, Value: int(f.Sort.Direction)}}, sort...)
		}
	}
	opts.SetSort(sort)

	return query, opts, true
}

func ownedFilter(id, owner string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	ownerID, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}
	return bson.M{"_id": oid, "owner": ownerID}, nil
}

func (mt mongoTask) toDomain() *domain.Task {
	return &domain.Task{
		ID:          mt.ID.Hex(),
		Description: mt.Description,
		Completed:   mt.Completed,
		Owner:       mt.Owner.Hex(),
		CreatedAt:   mt.CreatedAt.UTC(),
		UpdatedAt:   mt.UpdatedAt.UTC(),
	}
}
