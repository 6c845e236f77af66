package httpapi

import (
	"encoding/json"
	"net/http"

	"canteen-be/internal/user"
	"canteen-be/internal/utils"
)

type AuthHandler struct {
	users user.Service
}

func NewAuthHandler(users user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

type authResponse struct {
	Token string      `json:"token"`
	User  user.Public `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	token, u, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated,
		authResponse{Token: token, User: u.Public()},
		"registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in user.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Success: false, Error: "invalid json"})
		return
	}

	token, u, err := h.users.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK,
		authResponse{Token: token, User: u.Public()},
		"logged in successfully")
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: "authentication required"})
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, u.Public())
}
