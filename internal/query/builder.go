package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind orders the stages of a pipeline. Builder emits stages in ascending
// Kind order no matter the order they were added in.
type Kind int

const (
	KindFilter Kind = iota
	KindExpand
	KindSort
	KindProject
	KindPaginate
	KindTerminal
)

// Builder collects aggregation stages and emits them in the fixed order
// filter, expand, sort, projection, pagination, terminal. Sorting always sees
// the unprojected document and pagination always runs over the final sorted
// set.
type Builder struct {
	filter   bson.D
	expand   []bson.D
	sort     bson.D
	exclude  []string
	skip     int64
	limit    int64
	paged    bool
	terminal bson.D
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Match adds an equality condition to the filter stage.
func (b *Builder) Match(field string, value interface{}) *Builder {
	b.filter = append(b.filter, bson.E{Key: field, Value: value})
	return b
}

// Expand appends raw stages that reshape the filtered documents before any
// sort or projection is applied.
func (b *Builder) Expand(stages ...bson.D) *Builder {
	b.expand = append(b.expand, stages...)
	return b
}

// SortBy sets the sort stage. SortNone removes it.
func (b *Builder) SortBy(field string, dir Sort) *Builder {
	if dir == SortNone {
		b.sort = nil
		return b
	}
	b.sort = bson.D{{Key: field, Value: int32(dir)}}
	return b
}

// Exclude adds fields to the exclusion projection stage.
func (b *Builder) Exclude(fields ...string) *Builder {
	for _, f := range fields {
		if !contains(b.exclude, f) {
			b.exclude = append(b.exclude, f)
		}
	}
	return b
}

// Paginate sets the skip and limit stages.
func (b *Builder) Paginate(p Page) *Builder {
	b.skip = p.Skip()
	b.limit = p.Size
	b.paged = true
	return b
}

// Count sets a terminal stage that reduces the set to one document holding
// the number of matches under field.
func (b *Builder) Count(field string) *Builder {
	b.terminal = bson.D{{Key: "$count", Value: field}}
	return b
}

// Pipeline returns the stages in their fixed order. Absent stages are
// omitted rather than emitted as no-ops.
func (b *Builder) Pipeline() mongo.Pipeline {
	var p mongo.Pipeline
	if len(b.filter) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: b.filter}})
	}
	p = append(p, b.expand...)
	if len(b.sort) > 0 {
		p = append(p, bson.D{{Key: "$sort", Value: b.sort}})
	}
	if len(b.exclude) > 0 {
		projection := make(bson.D, 0, len(b.exclude))
		for _, f := range b.exclude {
			projection = append(projection, bson.E{Key: f, Value: 0})
		}
		p = append(p, bson.D{{Key: "$project", Value: projection}})
	}
	if b.paged {
		if b.skip > 0 {
			p = append(p, bson.D{{Key: "$skip", Value: b.skip}})
		}
		p = append(p, bson.D{{Key: "$limit", Value: b.limit}})
	}
	if len(b.terminal) > 0 {
		p = append(p, b.terminal)
	}
	return p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
