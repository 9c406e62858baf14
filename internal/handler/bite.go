package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/auth"
	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/service"
)

// BiteHandler exposes the bites API: listing, creation, editing, file
// management, and collaborator management.
type BiteHandler struct {
	bites  *service.BiteService
	logger *slog.Logger
}

func NewBiteHandler(bites *service.BiteService, logger *slog.Logger) *BiteHandler {
	return &BiteHandler{bites: bites, logger: logger}
}

// HandleListPublic returns a page of public bites, newest first.
//
// HTTP: GET /api/bites?limit=20&offset=0
func (h *BiteHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bites, err := h.bites.GetPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bites)
}

// HandleListMine returns every bite created by the authenticated user.
//
// HTTP: GET /api/bites/mine
// Auth: required
func (h *BiteHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	bites, err := h.bites.GetUserBites(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bites)
}

// HandleCreate creates a bite with its default file bundle.
//
// HTTP: POST /api/bites
// Auth: required
// Body: {"name":"...","description":"...","tags":["..."],"framework":"..."}
func (h *BiteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var params service.CreateBiteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.logger.Warn("invalid create bite JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	bite, err := h.bites.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bite)
}

// HandleGet returns a bite joined with its files, metadata, and permission
// rows. A missing bite id yields a JSON null body with 200, which is what
// existing clients expect from this endpoint.
//
// HTTP: GET /api/bites/{biteId}
func (h *BiteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	biteID := r.PathValue("biteId")

	detail, err := h.bites.GetByID(r.Context(), biteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, nilDetail)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// nilDetail is the typed nil that encodes as JSON null.
var nilDetail *service.BiteDetail

// HandleUpdate edits a bite's name, description, tags, or visibility.
//
// HTTP: PATCH /api/bites/{biteId}
// Auth: required; caller must hold owner or developer on the bite
func (h *BiteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")

	var params service.UpdateBiteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.bites.Update(r.Context(), biteID, userID, params); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "bite updated"})
}

type fileBody struct {
	Content  string `json:"content"`
	FileType string `json:"fileType"`
}

// HandleUpdateFile overwrites one file's content.
//
// HTTP: PUT /api/bites/{biteId}/files/{filename}
// Auth: required; owner or developer
func (h *BiteHandler) HandleUpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")
	filename := r.PathValue("filename")

	var body fileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.bites.UpdateFile(r.Context(), biteID, userID, filename, body.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "file updated"})
}

type createFileBody struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	FileType string `json:"fileType"`
}

// HandleCreateFile adds a file to a bite (the upload path).
//
// HTTP: POST /api/bites/{biteId}/files
// Auth: required; owner or developer
func (h *BiteHandler) HandleCreateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")

	var body createFileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.bites.CreateFile(r.Context(), biteID, userID, body.Filename, body.Content, body.FileType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "file created"})
}

// HandleDeleteFile removes a file from a bite.
//
// HTTP: DELETE /api/bites/{biteId}/files/{filename}
// Auth: required; owner only
func (h *BiteHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")
	filename := r.PathValue("filename")

	if err := h.bites.DeleteFile(r.Context(), biteID, userID, filename); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addCollaboratorBody struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// HandleAddCollaborator grants a role on a bite to another user.
//
// HTTP: POST /api/bites/{biteId}/collaborators
// Auth: required; owner only
// Body: {"userId": 2, "role": "developer"}
func (h *BiteHandler) HandleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")

	var body addCollaboratorBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}
	if body.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "userId is required",
		})
		return
	}

	if err := h.bites.AddCollaborator(r.Context(), biteID, userID, body.UserID, model.Role(body.Role)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "collaborator added"})
}

// HandleRemoveCollaborator revokes a user's role on a bite.
//
// HTTP: DELETE /api/bites/{biteId}/collaborators/{userId}
// Auth: required; owner only
func (h *BiteHandler) HandleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	biteID := r.PathValue("biteId")

	targetID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil || targetID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "userId must be a positive integer",
		})
		return
	}

	if err := h.bites.RemoveCollaborator(r.Context(), biteID, userID, targetID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetPermissions lists a bite's permission rows with user profiles.
//
// HTTP: GET /api/bites/{biteId}/permissions
func (h *BiteHandler) HandleGetPermissions(w http.ResponseWriter, r *http.Request) {
	biteID := r.PathValue("biteId")

	perms, err := h.bites.GetPermissions(r.Context(), biteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}
