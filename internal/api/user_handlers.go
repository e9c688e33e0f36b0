package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"platforma-zasobow/internal/auth"
	"platforma-zasobow/internal/database"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type CreateUserRequest struct {
	Email    string `json:"email" example:"user@platform.local"`
	Password string `json:"password" example:"password123"`
}

type UserResponse struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	PlatformAdmin  bool   `json:"platform_admin"`
	RegisteredAt   string `json:"registered_at"`
	Quota          int    `json:"quota"`
	QuotaRemaining int    `json:"quota_remaining"`
}

func parseUserIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
}

// @Summary      List all platform users
// @Description  Returns every registered user. Only a platform admin may call this.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   UserResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      403  {string}  string "Admin privileges required"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users [get]
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if !identity.IsAdmin {
		http.Error(w, "Admin privileges required", http.StatusForbidden)
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// @Summary      Register a new platform user
// @Description  Creates a user account with the default unlimited quota. Only a platform admin may register users.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createUserRequest  body  CreateUserRequest  true  "New user credentials"
// @Success      201  {object}  UserResponse
// @Failure      400  {string}  string "Invalid request body"
// @Failure      403  {string}  string "Admin privileges required"
// @Failure      409  {string}  string "User already exists"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users [post]
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if !identity.IsAdmin {
		http.Error(w, "Admin privileges required", http.StatusForbidden)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		http.Error(w, "Password cannot be empty", http.StatusBadRequest)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// @Summary      Get user details
// @Description  A user may read their own record; a platform admin may read anyone's.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  int  true  "user id"
// @Success      200  {object}  UserResponse
// @Failure      400  {string}  string "Invalid user id"
// @Failure      403  {string}  string "Permission denied"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId} [get]
func (s *Server) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !identity.CanActFor(userID) {
		http.Error(w, "Permission denied, cannot access other users information", http.StatusForbidden)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, database.ErrUserNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// @Summary      Delete a platform user
// @Description  Removes the user and cascades to every resource they own. Admin only; an admin can never delete their own account, so the platform always keeps at least one admin able to log in.
// @Tags         users
// @Security     BearerAuth
// @Param        userId  path  int  true  "user id"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Invalid user id"
// @Failure      403  {string}  string "Permission denied"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId} [delete]
func (s *Server) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if !identity.IsAdmin {
		http.Error(w, "Admin privileges required", http.StatusForbidden)
		return
	}

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	// self-access normally passes, but the delete operation is the one
	// place it must not: the platform has to retain a working admin account
	if userID == identity.UserID {
		http.Error(w, "Platform admin cannot delete their own account", http.StatusForbidden)
		return
	}

	deleted, err := s.store.DeleteUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: Failed to delete user %d: %v", userID, err)
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, database.ErrUserNotFound.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type SetQuotaRequest struct {
	Quota int `json:"quota" example:"5"`
}

// @Summary      Set a user's resource quota
// @Description  Sets both the quota and the remaining counter to the given value, discarding any previous allowance. Use -1 for unlimited. Admin only.
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        userId           path  int              true  "user id"
// @Param        setQuotaRequest  body  SetQuotaRequest  true  "New quota"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Invalid request"
// @Failure      403  {string}  string "Admin privileges required"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId}/quota [put]
func (s *Server) SetQuotaHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if !identity.IsAdmin {
		http.Error(w, "Admin privileges required", http.StatusForbidden)
		return
	}

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	var req SetQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quota < -1 {
		http.Error(w, "Quota must be -1 (unlimited) or a non-negative number", http.StatusBadRequest)
		return
	}

	updated, err := s.store.SetUserQuota(r.Context(), userID, req.Quota)
	if err != nil {
		http.Error(w, "Failed to update quota", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, database.ErrUserNotFound.Error(), http.StatusNotFound)
		return
	}

	if err := s.store.LogEvent(r.Context(), userID, "quota.updated", map[string]int{"quota": req.Quota}); err != nil {
		log.Printf("WARN: Failed to journal quota update for user %d: %v", userID, err)
	}

	w.WriteHeader(http.StatusNoContent)
}
