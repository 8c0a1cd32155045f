package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner identifies the user who created a document
type Owner struct {
	UID  primitive.ObjectID `bson:"uid" json:"uid"`
	Name string             `bson:"name" json:"name"`
}
