// Package query composes the aggregation pipelines used to read announcements
// and their comments.
package query

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	FieldID        = "_id"
	FieldProjectID = "projectId"
	FieldCreatedAt = "createdAt"
	FieldComments  = "comments"

	// CountField holds the number of matches in the result of CountForParent.
	CountField = "count"
)

// shortExcluded are the fields left out of the short form of an announcement.
var shortExcluded = []string{FieldCreatedAt, FieldComments}

// GetByID builds the lookup of a single announcement.
func GetByID(id primitive.ObjectID, short bool) mongo.Pipeline {
	b := NewBuilder().Match(FieldID, id)
	if short {
		b.Exclude(shortExcluded...)
	}
	return b.Pipeline()
}

// ListForParent builds the listing of the announcements of a project.
func ListForParent(projectID primitive.ObjectID, d Directives) mongo.Pipeline {
	b := NewBuilder().Match(FieldProjectID, projectID)
	if d.Short {
		b.Exclude(shortExcluded...)
	}
	return sortAndPaginate(b, d).Pipeline()
}

// CountForParent builds the count of the announcements of a project.
func CountForParent(projectID primitive.ObjectID) mongo.Pipeline {
	return NewBuilder().Match(FieldProjectID, projectID).Count(CountField).Pipeline()
}

// CommentsFor builds the listing of the comments of an announcement.
func CommentsFor(announcementID primitive.ObjectID, d Directives) mongo.Pipeline {
	return Flatten(CommentsFlattening, announcementID, d)
}

// sortAndPaginate applies the sort and pagination directives shared by top
// level and flattened listings.
func sortAndPaginate(b *Builder, d Directives) *Builder {
	b.SortBy(FieldCreatedAt, d.Sort)
	if d.Page != nil {
		b.Paginate(*d.Page)
	}
	return b
}
