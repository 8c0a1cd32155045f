package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Memory keeps documents in process and evaluates the subset of aggregation
// stages the query package composes: $match (equality), $project, $unwind,
// $set/$addFields, $unset, $sort, $skip, $limit and $count.
type Memory struct {
	mu   sync.RWMutex
	docs []bson.M
}

var _ Executor = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertOne(ctx context.Context, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var decoded bson.M
	if err := bson.Unmarshal(data, &decoded); err != nil {
		return err
	}
	stored := normalizeDocument(decoded)

	id, ok := stored["_id"]
	if !ok {
		return errors.New("document has no _id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.docs {
		if equal(existing["_id"], id) {
			return fmt.Errorf("%w: %v", ErrDuplicateID, id)
		}
	}
	m.docs = append(m.docs, stored)
	return nil
}

func (m *Memory) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := make([]bson.M, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, normalizeDocument(doc))
	}
	m.mu.RUnlock()

	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("stage must have exactly one operator, got %d", len(stage))
		}
		var err error
		docs, err = applyStage(stage[0].Key, stage[0].Value, docs)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Document, 0, len(docs))
	out = append(out, docs...)
	return out, nil
}

func (m *Memory) UpdateOne(ctx context.Context, filter bson.D, update bson.D) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range m.docs {
		if !matches(doc, filter) {
			continue
		}
		updated, err := applyUpdate(normalizeDocument(doc), update)
		if err != nil {
			return false, err
		}
		m.docs[i] = updated
		return true, nil
	}
	return false, nil
}

func (m *Memory) DeleteOne(ctx context.Context, filter bson.D) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range m.docs {
		if matches(doc, filter) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func applyStage(op string, arg interface{}, docs []bson.M) ([]bson.M, error) {
	switch op {
	case "$match":
		filter, err := asD(arg)
		if err != nil {
			return nil, fmt.Errorf("$match: %w", err)
		}
		out := docs[:0]
		for _, doc := range docs {
			if matches(doc, filter) {
				out = append(out, doc)
			}
		}
		return out, nil

	case "$project":
		projection, err := asD(arg)
		if err != nil {
			return nil, fmt.Errorf("$project: %w", err)
		}
		return project(docs, projection), nil

	case "$unwind":
		path, err := unwindPath(arg)
		if err != nil {
			return nil, err
		}
		return unwind(docs, path), nil

	case "$set", "$addFields":
		fields, err := asD(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out := make([]bson.M, 0, len(docs))
		for _, doc := range docs {
			out = append(out, setFields(doc, fields))
		}
		return out, nil

	case "$unset":
		fields, err := asStrings(arg)
		if err != nil {
			return nil, fmt.Errorf("$unset: %w", err)
		}
		for _, doc := range docs {
			for _, f := range fields {
				delete(doc, f)
			}
		}
		return docs, nil

	case "$sort":
		keys, err := asD(arg)
		if err != nil {
			return nil, fmt.Errorf("$sort: %w", err)
		}
		if err := sortDocs(docs, keys); err != nil {
			return nil, err
		}
		return docs, nil

	case "$skip":
		n, ok := toInt64(arg)
		if !ok || n < 0 {
			return nil, fmt.Errorf("$skip: invalid value %v", arg)
		}
		if n >= int64(len(docs)) {
			return docs[:0], nil
		}
		return docs[n:], nil

	case "$limit":
		n, ok := toInt64(arg)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("$limit: invalid value %v", arg)
		}
		if n < int64(len(docs)) {
			return docs[:n], nil
		}
		return docs, nil

	case "$count":
		field, ok := arg.(string)
		if !ok || field == "" {
			return nil, fmt.Errorf("$count: invalid field %v", arg)
		}
		// like the server, an empty input yields no document at all
		if len(docs) == 0 {
			return docs, nil
		}
		return []bson.M{{field: int32(len(docs))}}, nil

	default:
		return nil, fmt.Errorf("unsupported stage %q", op)
	}
}

func matches(doc bson.M, filter bson.D) bool {
	for _, cond := range filter {
		v, ok := lookup(doc, cond.Key)
		if !ok {
			if cond.Value != nil {
				return false
			}
			continue
		}
		if !equal(v, cond.Value) {
			return false
		}
	}
	return true
}

func project(docs []bson.M, projection bson.D) []bson.M {
	include := false
	keepID := true
	for _, e := range projection {
		if e.Key == "_id" {
			keepID = truthy(e.Value)
			continue
		}
		if truthy(e.Value) {
			include = true
		}
	}

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		projected := bson.M{}
		if include {
			for _, e := range projection {
				if e.Key == "_id" || !truthy(e.Value) {
					continue
				}
				if v, ok := doc[e.Key]; ok {
					projected[e.Key] = v
				}
			}
			if keepID {
				if id, ok := doc["_id"]; ok {
					projected["_id"] = id
				}
			}
		} else {
			for k, v := range doc {
				projected[k] = v
			}
			for _, e := range projection {
				if !truthy(e.Value) {
					delete(projected, e.Key)
				}
			}
		}
		out = append(out, projected)
	}
	return out
}

func unwindPath(arg interface{}) (string, error) {
	raw := arg
	if d, err := asD(arg); err == nil {
		for _, e := range d {
			if e.Key == "path" {
				raw = e.Value
			}
		}
	}
	path, ok := raw.(string)
	if !ok || !strings.HasPrefix(path, "$") {
		return "", fmt.Errorf("$unwind: invalid path %v", raw)
	}
	return strings.TrimPrefix(path, "$"), nil
}

// unwind emits one document per array element. Documents whose field is
// missing, null or an empty array are dropped.
func unwind(docs []bson.M, field string) []bson.M {
	var out []bson.M
	for _, doc := range docs {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		elems, isArray := v.(bson.A)
		if !isArray {
			elems = bson.A{v}
		}
		for _, elem := range elems {
			expanded := make(bson.M, len(doc))
			for k, inner := range doc {
				expanded[k] = inner
			}
			expanded[field] = elem
			out = append(out, normalizeDocument(expanded))
		}
	}
	return out
}

// setFields evaluates every expression against the input document. A field
// path that resolves to nothing removes the target field.
func setFields(doc bson.M, fields bson.D) bson.M {
	out := make(bson.M, len(doc)+len(fields))
	for k, v := range doc {
		out[k] = v
	}
	for _, e := range fields {
		ref, isRef := e.Value.(string)
		if isRef && strings.HasPrefix(ref, "$") {
			v, ok := lookup(doc, strings.TrimPrefix(ref, "$"))
			if !ok {
				delete(out, e.Key)
				continue
			}
			out[e.Key] = v
			continue
		}
		out[e.Key] = normalize(e.Value)
	}
	return out
}

func sortDocs(docs []bson.M, keys bson.D) error {
	dirs := make([]int64, len(keys))
	for i, k := range keys {
		dir, ok := toInt64(k.Value)
		if !ok || (dir != 1 && dir != -1) {
			return fmt.Errorf("$sort: invalid direction %v for %s", k.Value, k.Key)
		}
		dirs[i] = dir
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for n, k := range keys {
			a, _ := lookup(docs[i], k.Key)
			b, _ := lookup(docs[j], k.Key)
			if c := compare(a, b); c != 0 {
				return c*int(dirs[n]) < 0
			}
		}
		return false
	})
	return nil
}

func applyUpdate(doc bson.M, update bson.D) (bson.M, error) {
	for _, op := range update {
		fields, err := asD(op.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Key, err)
		}
		switch op.Key {
		case "$set":
			for _, e := range fields {
				v, err := toBSONValue(e.Value)
				if err != nil {
					return nil, err
				}
				doc[e.Key] = v
			}
		case "$push":
			for _, e := range fields {
				v, err := toBSONValue(e.Value)
				if err != nil {
					return nil, err
				}
				var arr bson.A
				if existing, ok := doc[e.Key]; ok && existing != nil {
					if arr, ok = existing.(bson.A); !ok {
						return nil, fmt.Errorf("$push: field %s is not an array", e.Key)
					}
				}
				doc[e.Key] = append(arr, v)
			}
		default:
			return nil, fmt.Errorf("unsupported update operator %q", op.Key)
		}
	}
	return doc, nil
}

// toBSONValue round trips v through the BSON codec so structs and times are
// stored the way the server would store them.
func toBSONValue(v interface{}) (interface{}, error) {
	data, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	var wrapper bson.M
	if err := bson.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return normalize(wrapper["v"]), nil
}

func lookup(doc bson.M, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func asD(v interface{}) (bson.D, error) {
	switch val := v.(type) {
	case bson.D:
		return val, nil
	case bson.M:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: val[k]})
		}
		return d, nil
	default:
		return nil, fmt.Errorf("expected a document, got %T", v)
	}
}

func asStrings(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case bson.A:
		out := make([]string, 0, len(val))
		for _, inner := range val {
			s, ok := inner.(string)
			if !ok {
				return nil, fmt.Errorf("expected a field name, got %T", inner)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected field names, got %T", v)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), float64(int64(n)) == n
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		if f, ok := toFloat64(v); ok {
			return f != 0
		}
		return true
	}
}

// typeRank follows the server's cross type comparison order.
func typeRank(v interface{}) int {
	switch v.(type) {
	case nil, primitive.Null:
		return 0
	case int, int32, int64, float64:
		return 1
	case string:
		return 2
	case bson.M:
		return 3
	case bson.A:
		return 4
	case primitive.ObjectID:
		return 5
	case bool:
		return 6
	case primitive.DateTime, time.Time:
		return 7
	default:
		return 8
	}
}

func millis(v interface{}) int64 {
	switch t := v.(type) {
	case primitive.DateTime:
		return int64(t)
	case time.Time:
		return t.UnixMilli()
	default:
		return 0
	}
}

func compare(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0:
		return 0
	case 1:
		fa, _ := toFloat64(a)
		fb, _ := toFloat64(b)
		return compareOrdered(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 5:
		ia, ib := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(ia[:], ib[:])
	case 6:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 7:
		return compareOrdered(millis(a), millis(b))
	default:
		if reflect.DeepEqual(a, b) {
			return 0
		}
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func equal(a, b interface{}) bool {
	return compare(a, b) == 0
}
