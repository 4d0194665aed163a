package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/videos"
)

// VideoHandler handles tutor video endpoints
type VideoHandler struct {
	videos         *videos.Service
	maxUploadBytes int64
}

// NewVideoHandler creates a new video handler accepting uploads up to maxUploadBytes
func NewVideoHandler(videosService *videos.Service, maxUploadBytes int64) *VideoHandler {
	return &VideoHandler{
		videos:         videosService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload handles POST /api/v1/video/upload (multipart: title, description, video)
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tutor := middleware.MustGetUser(r.Context())

	if !isMultipart(r) {
		WriteError(w, NewInvalidRequestError("expected multipart/form-data"))
		return
	}
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		WriteError(w, err)
		return
	}
	defer removeMultipartForm(r)

	obj, file, err := formFile(r, "video")
	if err != nil {
		WriteError(w, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	video, err := h.videos.Upload(r.Context(), tutor.ID, r.FormValue("title"), r.FormValue("description"), obj)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.VideoResponse{Success: true, Video: response.VideoFromModel(video)})
}

// ListMine handles GET /api/v1/user/videos
func (h *VideoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	tutor := middleware.MustGetUser(r.Context())

	list, err := h.videos.ListForTutor(r.Context(), tutor.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Video, len(list))
	for i, v := range list {
		out[i] = response.VideoFromModel(v)
		out[i].Tutor.Name = tutor.Name
		out[i].Tutor.Email = tutor.Email
	}
	response.JSON(w, http.StatusOK, response.VideosResponse{Success: true, Videos: out})
}

// List handles GET /api/v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.videos.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Video, len(entries))
	for i, e := range entries {
		out[i] = response.VideoFromEntry(e)
	}
	response.JSON(w, http.StatusOK, response.VideosResponse{Success: true, Videos: out})
}

// Get handles GET /api/v1/video/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.Get(r.Context(), model.VideoID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.VideoResponse{Success: true, Video: response.VideoFromModel(video)})
}

// Update handles PUT /api/v1/video/update/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetUser(r.Context())

	var req request.UpdateVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	video, err := h.videos.Update(r.Context(), actor, model.VideoID(mux.Vars(r)["id"]), req.Title, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.VideoResponse{Success: true, Video: response.VideoFromModel(video)})
}

// Delete handles DELETE /api/v1/video/delete/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.MustGetUser(r.Context())

	if err := h.videos.Delete(r.Context(), actor, model.VideoID(mux.Vars(r)["id"])); err != nil {
		WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Video deleted successfully")
}
