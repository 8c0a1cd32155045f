package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Flattening exposes an embedded array as a collection of its own: every
// element becomes one result document whose top level fields are copied from
// the element. The wrapper field is dropped afterwards, so sort and paginate
// stages can treat the elements like ordinary documents.
type Flattening struct {
	// Array is the name of the embedded array field.
	Array string
	// Fields are promoted from each element to the same name at the top level.
	Fields []string
}

// CommentsFlattening promotes the comments of an announcement or a task.
var CommentsFlattening = Flattening{
	Array:  "comments",
	Fields: []string{"_id", "owner", "text", "createdAt", "updatedAt"},
}

// Stages returns the expand-and-promote stages. They must run after a filter
// that selects the parent documents.
func (f Flattening) Stages() []bson.D {
	ref := "$" + f.Array

	promote := make(bson.D, 0, len(f.Fields))
	for _, field := range f.Fields {
		promote = append(promote, bson.E{Key: field, Value: ref + "." + field})
	}

	return []bson.D{
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: f.Array, Value: 1}}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: ref}}}},
		{{Key: "$set", Value: promote}},
		{{Key: "$unset", Value: f.Array}},
	}
}

// Flatten builds the pipeline listing the flattened elements of the parent
// with the given id, sorted and paginated per d. Short projection does not
// apply to flattened elements.
func Flatten(f Flattening, parentID interface{}, d Directives) mongo.Pipeline {
	b := NewBuilder().Match(FieldID, parentID).Expand(f.Stages()...)
	return sortAndPaginate(b, d).Pipeline()
}
