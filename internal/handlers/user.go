package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

// UserHandler serves candidate profiles on the status backend.
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUser saves a profile, updating the existing one for the same email.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.service.SaveUser(r.Context(), user)
	if err != nil {
		if code := services.HTTPStatus(err); code == http.StatusBadRequest {
			writeError(w, code, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, err := h.service.UserList(r.Context(), limit)
	if err != nil {
		log.Printf("[statusd] list users: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type ProfileUpdater interface {
	UpdateUser(ctx context.Context, user models.User) (*models.User, error)
}

// ProfileHandler is the web app side of profile updates.
type ProfileHandler struct {
	profiles ProfileUpdater
}

func NewProfileHandler(profiles ProfileUpdater) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Printf("[profile] undecodable update: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user information")
		return
	}

	saved, err := h.profiles.UpdateUser(r.Context(), user)
	if err != nil {
		log.Printf("[profile] update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user information")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": saved})
}
