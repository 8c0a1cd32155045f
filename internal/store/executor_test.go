package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectboard-gobackend/internal/query"
)

type testOwner struct {
	UID  primitive.ObjectID `bson:"uid"`
	Name string             `bson:"name"`
}

type testComment struct {
	ID        primitive.ObjectID `bson:"_id"`
	Owner     testOwner          `bson:"owner"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type testAnnouncement struct {
	ID        primitive.ObjectID `bson:"_id"`
	ProjectID primitive.ObjectID `bson:"projectId"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"createdAt"`
	Comments  []testComment      `bson:"comments"`
}

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, m Executor, projectID primitive.ObjectID, n int) []primitive.ObjectID {
	t.Helper()
	ids := make([]primitive.ObjectID, 0, n)
	// inserted newest first so natural order differs from createdAt order
	for i := n - 1; i >= 0; i-- {
		id := primitive.NewObjectID()
		err := m.InsertOne(context.Background(), testAnnouncement{
			ID:        id,
			ProjectID: projectID,
			Text:      fmt.Sprintf("a%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Comments:  []testComment{},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func texts(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["text"].(string))
	}
	return out
}

// runExecutorTests runs the behaviour every Executor must share. newExecutor
// returns an empty store.
func runExecutorTests(t *testing.T, newExecutor func(t *testing.T) Executor) {
	t.Run("insert_duplicate_id", func(t *testing.T) { testInsertDuplicateID(t, newExecutor(t)) })
	t.Run("list_for_parent", func(t *testing.T) { testListForParent(t, newExecutor(t)) })
	t.Run("pagination_boundary", func(t *testing.T) { testPaginationBoundary(t, newExecutor(t)) })
	t.Run("count", func(t *testing.T) { testCount(t, newExecutor(t)) })
	t.Run("flatten_comments", func(t *testing.T) { testFlattenComments(t, newExecutor(t)) })
	t.Run("flatten_without_comments", func(t *testing.T) { testFlattenWithoutComments(t, newExecutor(t)) })
	t.Run("update_one", func(t *testing.T) { testUpdateOne(t, newExecutor(t)) })
	t.Run("delete_one", func(t *testing.T) { testDeleteOne(t, newExecutor(t)) })
	t.Run("results_are_copies", func(t *testing.T) { testResultsAreCopies(t, newExecutor(t)) })
}

func testInsertDuplicateID(t *testing.T, m Executor) {
	id := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), bson.M{"_id": id}))

	err := m.InsertOne(context.Background(), bson.M{"_id": id})
	require.ErrorIs(t, err, ErrDuplicateID)
}

func testListForParent(t *testing.T, m Executor) {
	projectID := primitive.NewObjectID()
	seed(t, m, projectID, 4)
	seed(t, m, primitive.NewObjectID(), 2)

	t.Run("natural_order", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.ListForParent(projectID, query.Directives{}))
		require.NoError(t, err)
		require.Equal(t, []string{"a3", "a2", "a1", "a0"}, texts(docs))
	})

	t.Run("ascending", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.ListForParent(projectID, query.Directives{Sort: query.SortAscending}))
		require.NoError(t, err)
		require.Equal(t, []string{"a0", "a1", "a2", "a3"}, texts(docs))
	})

	t.Run("sort_then_short_projection", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.ListForParent(projectID, query.Directives{
			Sort:  query.SortDescending,
			Short: true,
		}))
		require.NoError(t, err)
		require.Equal(t, []string{"a3", "a2", "a1", "a0"}, texts(docs))
		for _, d := range docs {
			require.NotContains(t, d, "createdAt")
			require.NotContains(t, d, "comments")
			require.Contains(t, d, "_id")
			require.Contains(t, d, "projectId")
		}
	})
}

func testPaginationBoundary(t *testing.T, m Executor) {
	const total = 7
	projectID := primitive.NewObjectID()
	seed(t, m, projectID, total)

	for _, size := range []int64{1, 2, 3, 7, 10} {
		for index := int64(0); index <= 8; index++ {
			t.Run(fmt.Sprintf("size_%d_page_%d", size, index), func(t *testing.T) {
				docs, err := m.Aggregate(context.Background(), query.ListForParent(projectID, query.Directives{
					Sort: query.SortAscending,
					Page: &query.Page{Index: index, Size: size},
				}))
				require.NoError(t, err)

				want := total - index*size
				if want < 0 {
					want = 0
				}
				if want > size {
					want = size
				}
				require.Len(t, docs, int(want))
				for i, d := range docs {
					require.Equal(t, fmt.Sprintf("a%d", index*size+int64(i)), d["text"])
				}
			})
		}
	}
}

func testCount(t *testing.T, m Executor) {
	projectID := primitive.NewObjectID()
	seed(t, m, projectID, 3)

	docs, err := m.Aggregate(context.Background(), query.CountForParent(projectID))
	require.NoError(t, err)
	require.Equal(t, []Document{{"count": int32(3)}}, docs)

	docs, err = m.Aggregate(context.Background(), query.CountForParent(primitive.NewObjectID()))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func testFlattenComments(t *testing.T, m Executor) {
	announcementID := primitive.NewObjectID()
	owner := testOwner{UID: primitive.NewObjectID(), Name: "Alice"}

	comments := []testComment{}
	for i := 0; i < 5; i++ {
		comments = append(comments, testComment{
			ID:        primitive.NewObjectID(),
			Owner:     owner,
			Text:      fmt.Sprintf("c%d", i),
			CreatedAt: base.Add(time.Duration(5-i) * time.Minute),
			UpdatedAt: base,
		})
	}
	require.NoError(t, m.InsertOne(context.Background(), testAnnouncement{
		ID:        announcementID,
		ProjectID: primitive.NewObjectID(),
		Text:      "parent",
		CreatedAt: base,
		Comments:  comments,
	}))

	t.Run("promoted_fields", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.CommentsFor(announcementID, query.Directives{}))
		require.NoError(t, err)
		require.Len(t, docs, 5)
		require.Equal(t, []string{"c0", "c1", "c2", "c3", "c4"}, texts(docs))

		first := docs[0]
		require.Len(t, first, 5)
		require.Equal(t, comments[0].ID, first["_id"])
		require.Equal(t, primitive.NewDateTimeFromTime(comments[0].CreatedAt), first["createdAt"])
		require.Equal(t, bson.M{"uid": owner.UID, "name": "Alice"}, first["owner"])
		require.NotContains(t, first, "comments")
		require.NotContains(t, first, "projectId")
	})

	t.Run("sorted_and_paginated", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.CommentsFor(announcementID, query.Directives{
			Sort: query.SortAscending,
			Page: &query.Page{Index: 1, Size: 2},
		}))
		require.NoError(t, err)
		require.Equal(t, []string{"c2", "c1"}, texts(docs))
	})

	t.Run("count_equals_comments", func(t *testing.T) {
		p := query.NewBuilder().
			Match(query.FieldID, announcementID).
			Expand(query.CommentsFlattening.Stages()...).
			Count("n").
			Pipeline()
		docs, err := m.Aggregate(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, []Document{{"n": int32(5)}}, docs)
	})

	t.Run("storage_order_untouched", func(t *testing.T) {
		docs, err := m.Aggregate(context.Background(), query.GetByID(announcementID, false))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		stored := docs[0]["comments"].(bson.A)
		require.Equal(t, "c0", stored[0].(bson.M)["text"])
		require.Equal(t, "c4", stored[4].(bson.M)["text"])
	})
}

func testFlattenWithoutComments(t *testing.T, m Executor) {
	announcementID := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), testAnnouncement{
		ID:       announcementID,
		Comments: []testComment{},
	}))

	docs, err := m.Aggregate(context.Background(), query.CommentsFor(announcementID, query.Directives{Sort: query.SortDescending}))
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)

	docs, err = m.Aggregate(context.Background(), query.CommentsFor(primitive.NewObjectID(), query.Directives{}))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func testUpdateOne(t *testing.T, m Executor) {
	id := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), testAnnouncement{ID: id, Text: "old", Comments: []testComment{}}))

	when := base.Add(time.Hour)
	matched, err := m.UpdateOne(context.Background(), bson.D{{Key: "_id", Value: id}}, bson.D{
		{Key: "$set", Value: bson.D{{Key: "text", Value: "new"}, {Key: "updatedAt", Value: when}}},
		{Key: "$push", Value: bson.D{{Key: "comments", Value: testComment{ID: primitive.NewObjectID(), Text: "hi"}}}},
	})
	require.NoError(t, err)
	require.True(t, matched)

	docs, err := m.Aggregate(context.Background(), query.GetByID(id, false))
	require.NoError(t, err)
	require.Equal(t, "new", docs[0]["text"])
	require.Equal(t, primitive.NewDateTimeFromTime(when), docs[0]["updatedAt"])
	require.Len(t, docs[0]["comments"], 1)

	matched, err = m.UpdateOne(context.Background(), bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, bson.D{
		{Key: "$set", Value: bson.D{{Key: "text", Value: "x"}}},
	})
	require.NoError(t, err)
	require.False(t, matched)
}

func testDeleteOne(t *testing.T, m Executor) {
	id := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), bson.M{"_id": id}))

	deleted, err := m.DeleteOne(context.Background(), bson.D{{Key: "_id", Value: id}})
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = m.DeleteOne(context.Background(), bson.D{{Key: "_id", Value: id}})
	require.NoError(t, err)
	require.False(t, deleted)
}

func testResultsAreCopies(t *testing.T, m Executor) {
	id := primitive.NewObjectID()
	require.NoError(t, m.InsertOne(context.Background(), bson.M{"_id": id, "text": "x"}))

	docs, err := m.Aggregate(context.Background(), query.GetByID(id, false))
	require.NoError(t, err)
	docs[0]["text"] = "mutated"

	docs, err = m.Aggregate(context.Background(), query.GetByID(id, false))
	require.NoError(t, err)
	require.Equal(t, "x", docs[0]["text"])
}
