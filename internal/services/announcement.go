package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markjakearzadon/projectboard-gobackend/internal/logger"
	"github.com/markjakearzadon/projectboard-gobackend/internal/models"
	"github.com/markjakearzadon/projectboard-gobackend/internal/query"
	"github.com/markjakearzadon/projectboard-gobackend/internal/store"
)

const DefaultRequestTimeout = 5 * time.Second

type AnnouncementService struct {
	store   store.Executor
	logger  logger.Logger
	timeout time.Duration
	now     func() time.Time
}

type AnnouncementServiceOption func(*AnnouncementService)

func WithLogger(l logger.Logger) AnnouncementServiceOption {
	return func(s *AnnouncementService) {
		s.logger = l
	}
}

// WithRequestTimeout bounds every store round trip.
func WithRequestTimeout(d time.Duration) AnnouncementServiceOption {
	return func(s *AnnouncementService) {
		s.timeout = d
	}
}

// WithClock overrides the source of creation and update timestamps.
func WithClock(now func() time.Time) AnnouncementServiceOption {
	return func(s *AnnouncementService) {
		s.now = now
	}
}

func NewAnnouncementService(executor store.Executor, opts ...AnnouncementServiceOption) *AnnouncementService {
	s := &AnnouncementService{
		store:   executor,
		logger:  logger.NewNoopLogger(),
		timeout: DefaultRequestTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateAnnouncementRequest struct {
	ProjectID string `json:"projectId"`
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

// UpdateAnnouncementRequest carries the only mutable field of an
// announcement.
type UpdateAnnouncementRequest struct {
	Text string `json:"text"`
}

type AddCommentRequest struct {
	Text     string `json:"text"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// CreateAnnouncement validates req and inserts a new announcement with no
// comments.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if isBlank(req.ProjectID) || isBlank(req.Text) || isBlank(req.UserID) || isBlank(req.Username) {
		return nil, validationErrorf("Missing required fields")
	}
	projectID, err := parseID("projectId", req.ProjectID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID("userId", req.UserID)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	announcement := &models.Announcement{
		ID:        primitive.NewObjectID(),
		Owner:     models.Owner{UID: uid, Name: req.Username},
		ProjectID: projectID,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
		Comments:  []models.Comment{},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.InsertOne(ctx, announcement); err != nil {
		return nil, s.storageError(ctx, "create announcement", err, zap.String("project_id", req.ProjectID))
	}

	return announcement, nil
}

// GetAnnouncement returns the announcement with the given id as a sequence of
// zero or one documents.
func (s *AnnouncementService) GetAnnouncement(ctx context.Context, id string, short bool) ([]store.Document, error) {
	objID, err := parseID("announcementID", id)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, "fetch announcement", query.GetByID(objID, short))
}

// ListAnnouncementsForProject returns the announcements of a project sorted,
// projected and paginated per d.
func (s *AnnouncementService) ListAnnouncementsForProject(ctx context.Context, projectID string, d query.Directives) ([]store.Document, error) {
	objID, err := parseID("projectID", projectID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, "fetch announcements", query.ListForParent(objID, d))
}

// CountAnnouncementsForProject returns the number of announcements of a
// project. A project without announcements counts zero.
func (s *AnnouncementService) CountAnnouncementsForProject(ctx context.Context, projectID string) (int64, error) {
	objID, err := parseID("projectID", projectID)
	if err != nil {
		return 0, err
	}

	docs, err := s.aggregate(ctx, "count announcements", query.CountForParent(objID))
	if err != nil {
		return 0, err
	}
	// $count emits no document when nothing matched
	if len(docs) == 0 {
		return 0, nil
	}

	switch n := docs[0][query.CountField].(type) {
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, s.storageError(ctx, "count announcements", errors.New("unexpected count result"), zap.Any("result", docs[0]))
	}
}

// ListComments returns the comments of an announcement as top level
// documents, sorted and paginated per d.
func (s *AnnouncementService) ListComments(ctx context.Context, announcementID string, d query.Directives) ([]store.Document, error) {
	objID, err := parseID("announcementID", announcementID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, "fetch comments", query.CommentsFor(objID, d))
}

// AddComment appends a comment to an announcement.
func (s *AnnouncementService) AddComment(ctx context.Context, announcementID string, req AddCommentRequest) (*models.Comment, error) {
	objID, err := parseID("announcementID", announcementID)
	if err != nil {
		return nil, err
	}
	if isBlank(req.Text) || isBlank(req.UserID) || isBlank(req.Username) {
		return nil, validationErrorf("Missing required fields")
	}
	uid, err := parseID("userId", req.UserID)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		Owner:     models.Owner{UID: uid, Name: req.Username},
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matched, err := s.store.UpdateOne(ctx, bson.D{{Key: query.FieldID, Value: objID}}, bson.D{
		{Key: "$push", Value: bson.D{{Key: query.FieldComments, Value: comment}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
	})
	if err != nil {
		return nil, s.storageError(ctx, "add comment", err, zap.String("announcement_id", announcementID))
	}
	if !matched {
		return nil, &NotFoundError{Resource: "announcement", ID: announcementID}
	}

	return comment, nil
}

// UpdateAnnouncement replaces the text of an announcement and returns the
// updated document. Owner, project and creation time cannot be changed.
func (s *AnnouncementService) UpdateAnnouncement(ctx context.Context, id string, req UpdateAnnouncementRequest) (store.Document, error) {
	objID, err := parseID("announcementID", id)
	if err != nil {
		return nil, err
	}
	if isBlank(req.Text) {
		return nil, validationErrorf("Missing required fields")
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matched, err := s.store.UpdateOne(updateCtx, bson.D{{Key: query.FieldID, Value: objID}}, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "text", Value: req.Text},
			{Key: "updatedAt", Value: s.timestamp()},
		}},
	})
	if err != nil {
		return nil, s.storageError(ctx, "update announcement", err, zap.String("announcement_id", id))
	}
	if !matched {
		return nil, &NotFoundError{Resource: "announcement", ID: id}
	}

	docs, err := s.aggregate(ctx, "fetch announcement", query.GetByID(objID, false))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &NotFoundError{Resource: "announcement", ID: id}
	}
	return docs[0], nil
}

// DeleteAnnouncement removes an announcement together with its comments.
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, id string) error {
	objID, err := parseID("announcementID", id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deleted, err := s.store.DeleteOne(ctx, bson.D{{Key: query.FieldID, Value: objID}})
	if err != nil {
		return s.storageError(ctx, "delete announcement", err, zap.String("announcement_id", id))
	}
	if !deleted {
		return &NotFoundError{Resource: "announcement", ID: id}
	}
	return nil
}

func (s *AnnouncementService) aggregate(ctx context.Context, op string, pipeline mongo.Pipeline) ([]store.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.store.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, s.storageError(ctx, op, err)
	}
	if docs == nil {
		docs = []store.Document{}
	}
	return docs, nil
}

func (s *AnnouncementService) storageError(ctx context.Context, op string, err error, fields ...zap.Field) error {
	s.logger.ErrorWithContext(ctx, "store round trip failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return &StorageError{Op: op, Err: err}
}

// timestamp is truncated to the millisecond precision BSON dates keep, so the
// value returned to the caller equals the stored one.
func (s *AnnouncementService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func parseID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, validationErrorf("invalid %s: %q", field, raw)
	}
	return id, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
