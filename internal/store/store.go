//go:generate mockgen -source store.go -destination ./mocks/mock_executor.go -package mocks Executor

// Package store runs composed pipelines and single document writes against a
// document collection.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Document is a result document as returned by the store.
type Document = bson.M

// ErrDuplicateID is returned when a document with the same _id already exists.
var ErrDuplicateID = errors.New("duplicate _id")

// Executor is the document store seen by the services. Writes are atomic per
// document.
type Executor interface {
	// InsertOne stores doc. doc must carry its own _id.
	InsertOne(ctx context.Context, doc interface{}) error
	// Aggregate runs pipeline and returns every result document.
	Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]Document, error)
	// UpdateOne applies update ($set and $push) to the first document
	// matching filter and reports whether one matched.
	UpdateOne(ctx context.Context, filter bson.D, update bson.D) (bool, error)
	// DeleteOne removes the first document matching filter and reports
	// whether one was removed.
	DeleteOne(ctx context.Context, filter bson.D) (bool, error)
}

// normalize converts nested documents to bson.M and arrays to bson.A so that
// results look the same whichever executor produced them.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		out := make(bson.M, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case map[string]interface{}:
		return normalize(bson.M(val))
	case bson.D:
		out := make(bson.M, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make(bson.A, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	case []interface{}:
		return normalize(bson.A(val))
	case primitive.Binary:
		data := make([]byte, len(val.Data))
		copy(data, val.Data)
		return primitive.Binary{Subtype: val.Subtype, Data: data}
	default:
		return v
	}
}

func normalizeDocument(doc bson.M) Document {
	return normalize(doc).(bson.M)
}
