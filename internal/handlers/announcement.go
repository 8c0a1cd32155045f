package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/projectboard-gobackend/internal/logger"
	"github.com/markjakearzadon/projectboard-gobackend/internal/query"
	"github.com/markjakearzadon/projectboard-gobackend/internal/services"
)

// AnnouncementHandler handles HTTP requests for announcements
type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
	logger              logger.Logger
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(announcementService *services.AnnouncementService, l logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService, logger: l}
}

// RegisterRoutes mounts the announcement routes on router.
func (h *AnnouncementHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/announcement", h.CreateAnnouncement).Methods(http.MethodPost)
	router.HandleFunc("/api/announcement/{announcementID}", h.GetAnnouncement).Methods(http.MethodGet)
	router.HandleFunc("/api/announcement/{announcementID}", h.UpdateAnnouncement).Methods(http.MethodPatch)
	router.HandleFunc("/api/announcement/{announcementID}", h.DeleteAnnouncement).Methods(http.MethodDelete)
	router.HandleFunc("/api/announcement/{announcementID}/comments", h.GetComments).Methods(http.MethodGet)
	router.HandleFunc("/api/announcement/{announcementID}/comments", h.AddComment).Methods(http.MethodPost)
	router.HandleFunc("/api/project/{projectID}/announcements", h.GetAnnouncementsForProject).Methods(http.MethodGet)
	router.HandleFunc("/api/project/{projectID}/announcements/count", h.GetAnnouncementCountForProject).Methods(http.MethodGet)
}

// CreateAnnouncement handles POST /api/announcement
func (h *AnnouncementHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAnnouncementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	announcement, err := h.announcementService.CreateAnnouncement(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, announcement)
}

// GetAnnouncement handles GET /api/announcement/{announcementID}
func (h *AnnouncementHandler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	d := query.ParseDirectives(r.URL.Query())

	docs, err := h.announcementService.GetAnnouncement(r.Context(), mux.Vars(r)["announcementID"], d.Short)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, docs)
}

// GetAnnouncementsForProject handles GET /api/project/{projectID}/announcements
func (h *AnnouncementHandler) GetAnnouncementsForProject(w http.ResponseWriter, r *http.Request) {
	d := query.ParseDirectives(r.URL.Query())

	docs, err := h.announcementService.ListAnnouncementsForProject(r.Context(), mux.Vars(r)["projectID"], d)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, docs)
}

// GetAnnouncementCountForProject handles GET /api/project/{projectID}/announcements/count
func (h *AnnouncementHandler) GetAnnouncementCountForProject(w http.ResponseWriter, r *http.Request) {
	count, err := h.announcementService.CountAnnouncementsForProject(r.Context(), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, count)
}

// GetComments handles GET /api/announcement/{announcementID}/comments
func (h *AnnouncementHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	d := query.ParseDirectives(r.URL.Query())

	docs, err := h.announcementService.ListComments(r.Context(), mux.Vars(r)["announcementID"], d)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, docs)
}

// AddComment handles POST /api/announcement/{announcementID}/comments
func (h *AnnouncementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req services.AddCommentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.announcementService.AddComment(r.Context(), mux.Vars(r)["announcementID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, comment)
}

// UpdateAnnouncement handles PATCH /api/announcement/{announcementID}. Only
// the text can change; a body naming any other field is rejected.
func (h *AnnouncementHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateAnnouncementRequest
	if err := decodeStrictBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	doc, err := h.announcementService.UpdateAnnouncement(r.Context(), mux.Vars(r)["announcementID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, doc)
}

// DeleteAnnouncement handles DELETE /api/announcement/{announcementID}
func (h *AnnouncementHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.announcementService.DeleteAnnouncement(r.Context(), mux.Vars(r)["announcementID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
