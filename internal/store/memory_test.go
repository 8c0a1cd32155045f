package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectboard-gobackend/internal/query"
)

func TestMemoryExecutor(t *testing.T) {
	runExecutorTests(t, func(*testing.T) Executor { return NewMemory() })
}

func TestMemoryInsertRequiresID(t *testing.T) {
	m := NewMemory()
	require.Error(t, m.InsertOne(context.Background(), bson.M{"text": "x"}))
}

func TestMemoryHonorsCancellation(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Aggregate(ctx, query.GetByID(primitive.NewObjectID(), false))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestMemoryUnsupportedStage(t *testing.T) {
	m := NewMemory()
	_, err := m.Aggregate(context.Background(), []bson.D{{{Key: "$lookup", Value: bson.D{}}}})
	require.Error(t, err)
}

func TestMemoryUnsupportedUpdate(t *testing.T) {
	m := NewMemory()
	id := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), bson.M{"_id": id}))

	_, err := m.UpdateOne(context.Background(), bson.D{{Key: "_id", Value: id}}, bson.D{
		{Key: "$inc", Value: bson.D{{Key: "n", Value: 1}}},
	})
	require.Error(t, err)
}
