package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskhub/task-api/internal/core/domain"
)

func TestOwnedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	owner := primitive.NewObjectID()

	filter, err := ownedFilter(id.Hex(), owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": id, "owner": owner}, filter)

	_, err = ownedFilter("nope", owner.Hex())
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	// A malformed owner can never own anything.
	_, err = ownedFilter(id.Hex(), "nope")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestListQuery(t *testing.T) {
	owner := primitive.NewObjectID()
	done := true

	cases := []struct {
		name   string
		filter domain.TaskFilter
		query  bson.M
		sort   bson.D
		limit  *int64
		skip   *int64
	}{
		{
			name:   "owner only",
			filter: domain.TaskFilter{Owner: owner.Hex()},
			query:  bson.M{"owner": owner},
			sort:   bson.D{{Key: "_id", Value: 1}},
		},
		{
			name:   "completed page sorted desc",
			filter: domain.TaskFilter{Owner: owner.Hex(), Completed: &done, Limit: 10, Skip: 20, Sort: &domain.TaskSort{Field: "created_at", Direction: domain.SortDesc}},
			query:  bson.M{"owner": owner, "completed": true},
			sort:   bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}},
			limit:  ptr(int64(10)),
			skip:   ptr(int64(20)),
		},
		{
			name:   "unknown sort key ignored",
			filter: domain.TaskFilter{Owner: owner.Hex(), Sort: &domain.TaskSort{Field: "owner", Direction: domain.SortAsc}},
			query:  bson.M{"owner": owner},
			sort:   bson.D{{Key: "_id", Value: 1}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, opts, ok := listQuery(tc.filter)
			require.True(t, ok)
			assert.Equal(t, tc.query, query)
			assert.Equal(t, tc.sort, opts.Sort)
			assert.Equal(t, tc.limit, opts.Limit)
			assert.Equal(t, tc.skip, opts.Skip)
		})
	}
}

func TestListQuery_MalformedOwnerMatchesNothing(t *testing.T) {
	_, _, ok := listQuery(domain.TaskFilter{Owner: "nope"})
	assert.False(t, ok)
}

func ptr[T any](v T) *T { return &v }

func TestMongoTask_ToDomain(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	mt := mongoTask{
		ID:          primitive.NewObjectID(),
		Description: "buy milk",
		Completed:   true,
		Owner:       primitive.NewObjectID(),
		CreatedAt:   time.Date(2024, 5, 1, 8, 0, 0, 0, loc),
	}

	task := mt.toDomain()
	assert.Equal(t, mt.ID.Hex(), task.ID)
	assert.Equal(t, mt.Owner.Hex(), task.Owner)
	assert.Equal(t, time.UTC, task.CreatedAt.Location())
	assert.True(t, task.Completed)
}

func TestMongoUser_StoredFieldNames(t *testing.T) {
	age := 30
	raw, err := bson.Marshal(mongoUser{
		ID:           primitive.NewObjectID(),
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Age:          &age,
		Tokens:       []string{"tok-1"},
	})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	for _, key := range []string{"_id", "name", "email", "password_hash", "age", "tokens", "created_at", "updated_at"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "photo", "an empty photo must not be stored")
}
