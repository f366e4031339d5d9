package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/repositories"
	"highway/internal/services"
	"highway/internal/utils"
)

// NewAuthMiddleware returns the access guard for protected routes: extract the
// bearer token, verify it, resolve the user, attach it to the request context.
// Every failure short-circuits with 401. A user deleted after the token was
// issued fails here too, which is the only way an orphaned token becomes unusable.
func NewAuthMiddleware(tokenService services.TokenService, userRepo repositories.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				utils.SendJSONError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			userIDHex, err := tokenService.Verify(tokenString)
			if err != nil {
				if errors.Is(err, services.ErrTokenExpired) {
					utils.SendJSONError(w, "Token expired", http.StatusUnauthorized)
					return
				}
				utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			userID, err := primitive.ObjectIDFromHex(userIDHex)
			if err != nil {
				utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, mongo.ErrNoDocuments) {
					log.Error().Err(err).Str("user_id", userIDHex).Msg("Error resolving user for valid token")
				}
				utils.SendJSONError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			user.Sanitize()

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), user)))
		})
	}
}
