package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo runs pipelines against a MongoDB collection.
type Mongo struct {
	collection *mongo.Collection
}

var _ Executor = (*Mongo)(nil)

func NewMongo(db *mongo.Database, collection string) *Mongo {
	return &Mongo{collection: db.Collection(collection)}
}

func (m *Mongo) InsertOne(ctx context.Context, doc interface{}) error {
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicateID, err)
		}
		return err
	}
	return nil
}

func (m *Mongo) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]Document, error) {
	cur, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, normalizeDocument(doc))
	}
	return docs, nil
}

func (m *Mongo) UpdateOne(ctx context.Context, filter bson.D, update bson.D) (bool, error) {
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (m *Mongo) DeleteOne(ctx context.Context, filter bson.D) (bool, error) {
	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
