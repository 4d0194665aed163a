package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/coursehub/internal/api/middleware"
	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/services/users"
)

// maxAvatarBytes bounds profile update bodies that carry an avatar
const maxAvatarBytes = 10 << 20

// UserHandler handles profile and user administration endpoints
type UserHandler struct {
	users *users.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(usersService *users.Service) *UserHandler {
	return &UserHandler{users: usersService}
}

// GetMe handles GET /api/v1/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.UserResponse{Success: true, User: response.UserFromModel(user)})
}

// UpdateMe handles PUT /api/v1/me/update. A multipart body may also carry
// an "avatar" file.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.UpdateProfileRequest
	if isMultipart(r) {
		if err := parseMultipart(w, r, maxAvatarBytes); err != nil {
			WriteError(w, err)
			return
		}
		defer removeMultipartForm(r)
		req.Name = r.FormValue("name")
		req.Email = r.FormValue("email")

		obj, file, err := formFile(r, "avatar")
		if err != nil {
			WriteError(w, err)
			return
		}
		if obj != nil {
			defer file.Close()
			if _, err := h.users.UpdateAvatar(r.Context(), user.ID, *obj); err != nil {
				WriteError(w, err)
				return
			}
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserResponse{Success: true, User: response.UserFromModel(updated)})
}

// List handles GET /api/v1/admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UsersResponse{Success: true, Users: response.UsersFromModel(all)})
}

// Get handles GET /api/v1/admin/user/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), model.UserID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserResponse{Success: true, User: response.UserFromModel(user)})
}

// UpdateRole handles PUT /api/v1/admin/user/{id}
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.users.UpdateRole(r.Context(), model.UserID(mux.Vars(r)["id"]), model.Role(req.Role))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserResponse{Success: true, User: response.UserFromModel(user)})
}

// Delete handles DELETE /api/v1/admin/user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), model.UserID(mux.Vars(r)["id"])); err != nil {
		WriteError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "User Deleted Successfully")
}
