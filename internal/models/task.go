package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxTaskTitleLength       = 50
	MaxTaskDescriptionLength = 500
)

// Task declares the schema of the task collection. It shares the owner and
// comment shapes of Announcement; no endpoint reads or writes tasks.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner       Owner              `bson:"owner" json:"owner"`
	ProjectID   primitive.ObjectID `bson:"projectId" json:"projectId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
	DueAt       time.Time          `bson:"dueAt" json:"dueAt"`
	Assignees   []Assignee         `bson:"assignees" json:"assignees"`
	Comments    []Comment          `bson:"comments" json:"comments"`
}

type Assignee struct {
	UID  primitive.ObjectID `bson:"uid" json:"uid"`
	Name string             `bson:"name" json:"name"`
}

// Validate checks a task against the required fields and length limits of
// the task collection schema.
func (t *Task) Validate() error {
	var errs []error
	if t.Owner.UID.IsZero() || t.Owner.Name == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	if t.ProjectID.IsZero() {
		errs = append(errs, errors.New("projectId is required"))
	}
	if t.Title == "" {
		errs = append(errs, errors.New("title is required"))
	} else if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		errs = append(errs, fmt.Errorf("title must be at most %d characters", MaxTaskTitleLength))
	}
	if utf8.RuneCountInString(t.Description) > MaxTaskDescriptionLength {
		errs = append(errs, fmt.Errorf("description must be at most %d characters", MaxTaskDescriptionLength))
	}
	if t.Status == "" {
		errs = append(errs, errors.New("status is required"))
	}
	if t.DueAt.IsZero() {
		errs = append(errs, errors.New("dueAt is required"))
	}
	return errors.Join(errs...)
}
