package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"highway/internal/models"
	"highway/internal/services"
	"highway/internal/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	var updatePayload models.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&updatePayload); err != nil {
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	updatedUser, err := u.userService.UpdateUserProfile(r.Context(), user.ID, &updatePayload)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendJSONError(w, "User not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Msg("Error updating user profile")
			utils.SendJSONError(w, "Server error while updating profile", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"user":    updatedUser,
	})
}

func (u *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	if err := u.userService.DeleteUser(r.Context(), user.ID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Error deleting user account")
		utils.SendJSONError(w, "Server error while deleting account", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account deleted successfully",
	})
}
