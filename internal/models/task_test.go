package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validTask() Task {
	return Task{
		Owner:     Owner{UID: primitive.NewObjectID(), Name: "Alice"},
		ProjectID: primitive.NewObjectID(),
		Title:     "Write release notes",
		Status:    "todo",
		DueAt:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr string
	}{
		{name: "valid", mutate: func(*Task) {}},
		{name: "missing_owner", mutate: func(t *Task) { t.Owner = Owner{} }, wantErr: "owner is required"},
		{name: "missing_project", mutate: func(t *Task) { t.ProjectID = primitive.NilObjectID }, wantErr: "projectId is required"},
		{name: "missing_title", mutate: func(t *Task) { t.Title = "" }, wantErr: "title is required"},
		{name: "long_title", mutate: func(t *Task) { t.Title = strings.Repeat("x", 51) }, wantErr: "title must be at most 50 characters"},
		{name: "title_at_limit", mutate: func(t *Task) { t.Title = strings.Repeat("é", 50) }},
		{name: "long_description", mutate: func(t *Task) { t.Description = strings.Repeat("x", 501) }, wantErr: "description must be at most 500 characters"},
		{name: "missing_status", mutate: func(t *Task) { t.Status = "" }, wantErr: "status is required"},
		{name: "missing_due", mutate: func(t *Task) { t.DueAt = time.Time{} }, wantErr: "dueAt is required"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			task := validTask()
			test.mutate(&task)
			err := task.Validate()
			if test.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, test.wantErr)
		})
	}
}
