package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement represents an announcement document in the MongoDB database.
// Owner, ProjectID and CreatedAt are set once at creation.
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner     Owner              `bson:"owner" json:"owner"`
	ProjectID primitive.ObjectID `bson:"projectId" json:"projectId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
	Comments  []Comment          `bson:"comments" json:"comments"`
}

// Comment is embedded in the comments array of its parent and has no
// existence of its own.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Owner     Owner              `bson:"owner" json:"owner"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
