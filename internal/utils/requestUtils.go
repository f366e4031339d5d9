package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"highway/internal/models"
)

type contextKey string

// UserContextKey is where the auth middleware stores the resolved user.
const UserContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext extracts the authenticated user placed on the request
// context by the auth middleware. It writes a 401 response on failure.
func GetUserFromContext(w http.ResponseWriter, r *http.Request) (*models.User, error) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok || user == nil {
		SendJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// GetObjectIDFromVars extracts and parses an ObjectID from mux.Vars.
func GetObjectIDFromVars(w http.ResponseWriter, r *http.Request, paramName string) (primitive.ObjectID, error) {
	vars := mux.Vars(r)
	idStr := vars[paramName]
	if idStr == "" {
		SendJSONError(w, "Missing ID parameter", http.StatusBadRequest)
		return primitive.NilObjectID, errors.New("missing ID parameter")
	}

	objID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		SendJSONError(w, "Invalid ID format", http.StatusBadRequest)
		return primitive.NilObjectID, errors.New("invalid ID format")
	}
	return objID, nil
}
