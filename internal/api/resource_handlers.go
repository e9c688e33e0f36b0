package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"platforma-zasobow/internal/database"
	"strings"

	"github.com/jaevor/go-nanoid"
)

type CreateResourceRequest struct {
	ResourceName string `json:"resource_name" example:"my-first-node"`
}

func (s *Server) generateUniqueID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.ResourceExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for resource existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// @Summary      List all platform resources
// @Description  Returns every resource on the platform regardless of owner. Only a platform admin may call this.
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Resource
// @Failure      401  {string}  string "Unauthorized"
// @Failure      403  {string}  string "Admin privileges required"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /resources [get]
func (s *Server) ListAllResourcesHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if !identity.IsAdmin {
		http.Error(w, "Admin privileges required", http.StatusForbidden)
		return
	}

	resources, err := s.store.ListAllResources(r.Context())
	if err != nil {
		http.Error(w, "Failed to list resources", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resources)
}

// @Summary      List a user's resources
// @Description  Returns the resources owned by the given user, optionally narrowed to one resource id. A user may list their own; an admin may list anyone's.
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        userId       path   int     true   "user id"
// @Param        resource_id  query  string  false  "single resource id"
// @Success      200  {array}   models.Resource
// @Failure      400  {string}  string "Invalid user id"
// @Failure      403  {string}  string "Permission denied"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId}/resources [get]
func (s *Server) ListUserResourcesHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !identity.CanActFor(userID) {
		http.Error(w, "Permission denied, cannot access other users resources", http.StatusForbidden)
		return
	}

	resourceID := r.URL.Query().Get("resource_id")

	resources, err := s.store.GetUserResources(r.Context(), userID, resourceID)
	if err != nil {
		http.Error(w, "Failed to list resources", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resources)
}

// @Summary      Create a user resource
// @Description  Creates a resource owned by the given user, counted against their quota. The insert and the quota decrement happen in one transaction. Resource names need not be unique; each resource gets a unique generated id.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId                 path  int                    true  "user id"
// @Param        createResourceRequest  body  CreateResourceRequest  true  "Resource name"
// @Success      201  {object}  models.Resource
// @Failure      400  {string}  string "Invalid request"
// @Failure      403  {string}  string "Permission denied"
// @Failure      404  {string}  string "User not found"
// @Failure      422  {string}  string "Quota limit exceeded"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId}/resources [post]
func (s *Server) CreateResourceHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !identity.CanActFor(userID) {
		http.Error(w, "Permission denied, cannot create resources for other users", http.StatusForbidden)
		return
	}

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ResourceName) == "" {
		http.Error(w, "Resource name cannot be empty", http.StatusBadRequest)
		return
	}

	resourceID, err := s.generateUniqueID(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resource, err := s.store.CreateResource(r.Context(), userID, resourceID, req.ResourceName)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, database.ErrQuotaExceeded):
			http.Error(w, "Cannot create more resources, quota limit exceeded. Contact the platform admin to increase your quota.", http.StatusUnprocessableEntity)
		default:
			log.Printf("ERROR: Failed to create resource for user %d: %v", userID, err)
			http.Error(w, "Failed to create resource", http.StatusInternalServerError)
		}
		return
	}

	if err := s.store.LogEvent(r.Context(), userID, "resource.created", resource); err != nil {
		log.Printf("WARN: Failed to journal resource creation %s: %v", resource.ID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resource)
}

// @Summary      Delete user resources
// @Description  With a resource_id, deletes exactly that resource and frees one quota slot. Without it, deletes every resource the user owns and resets the remaining counter to the full quota.
// @Tags         resources
// @Security     BearerAuth
// @Param        userId       path   int     true   "user id"
// @Param        resource_id  query  string  false  "resource id"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Invalid user id"
// @Failure      403  {string}  string "Permission denied"
// @Failure      404  {string}  string "Resource or user not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /users/{userId}/resources [delete]
func (s *Server) DeleteResourceHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	userID, err := parseUserIDParam(r)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !identity.CanActFor(userID) {
		http.Error(w, "Permission denied, cannot delete other users resources", http.StatusForbidden)
		return
	}

	resourceID := r.URL.Query().Get("resource_id")

	if resourceID != "" {
		err = s.store.DeleteResource(r.Context(), userID, resourceID)
	} else {
		_, err = s.store.DeleteAllResources(r.Context(), userID)
	}

	if err != nil {
		switch {
		case errors.Is(err, database.ErrUserNotFound), errors.Is(err, database.ErrResourceNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("ERROR: Failed to delete resources for user %d: %v", userID, err)
			http.Error(w, "Failed to delete resources", http.StatusInternalServerError)
		}
		return
	}

	if err := s.store.LogEvent(r.Context(), userID, "resource.deleted", map[string]string{"resource_id": resourceID}); err != nil {
		log.Printf("WARN: Failed to journal resource deletion for user %d: %v", userID, err)
	}

	w.WriteHeader(http.StatusNoContent)
}
