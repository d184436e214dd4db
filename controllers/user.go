package controllers

import (
	"context"
	"net/http"

	"bioshop/middleware"
	"bioshop/models"
	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UserController handles sign-in and back-office accounts.
type UserController struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewUserController(auth *services.AuthService, log *zap.Logger) *UserController {
	return &UserController{auth: auth, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, uc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	token, user, err := uc.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(w, uc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, uc.log, services.ErrUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := uc.auth.Profile(ctx, claims.Email)
	if err != nil {
		respondError(w, uc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (uc *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, uc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := uc.auth.CreateUser(ctx, in)
	if err != nil {
		respondError(w, uc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// UpdateUser keeps the current password unless a new one is sent.
func (uc *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, uc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := uc.auth.UpdateUser(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, uc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
