package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"highway/internal/config"
	"highway/internal/models"
	"highway/internal/services"
	"highway/internal/utils"
)

type AuthHandler struct {
	otpService  services.OTPService
	authService services.AuthService
	frontendURL string
}

func NewAuthHandler(otpService services.OTPService, authService services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		otpService:  otpService,
		authService: authService,
		frontendURL: cfg.FrontendURL,
	}
}

// Register creates a user without a password and issues the first OTP.
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := a.otpService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrEmailTaken):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Registration error")
			utils.SendJSONError(w, "Server error during registration", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User registered successfully. Please check your email for OTP verification.",
		"userId":  user.ID.Hex(),
	})
}

// Login triggers OTP issuance for an existing user.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := a.otpService.Login(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendJSONError(w, "User not found. Please sign up first.", http.StatusBadRequest)
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Login error")
			utils.SendJSONError(w, "Server error during login", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "OTP sent to your email for login verification",
		"userId":  user.ID.Hex(),
	})
}

// VerifyOTP completes both signup verification and login; the mechanics are
// identical, only the message differs.
func (a *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, user, err := a.otpService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendJSONError(w, "User not found", http.StatusBadRequest)
		case errors.Is(err, services.ErrNoOTP):
			utils.SendJSONError(w, "No OTP found. Please request a new one.", http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidOTP):
			utils.SendJSONError(w, "Invalid OTP", http.StatusBadRequest)
		case errors.Is(err, services.ErrOTPExpired):
			utils.SendJSONError(w, "OTP expired. Please request a new one.", http.StatusBadRequest)
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("OTP verification error")
			utils.SendJSONError(w, "Server error during OTP verification", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// RequestOTP is the explicit, throttled re-request path.
func (a *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := a.otpService.RequestOTP(r.Context(), req.Email)
	if err != nil {
		var cooldown *services.OTPCooldownError
		switch {
		case errors.As(err, &cooldown):
			utils.SendJSONError(w, fmt.Sprintf("Please wait %d seconds before requesting another OTP", cooldown.RetryAfterSeconds), http.StatusTooManyRequests)
		case errors.Is(err, services.ErrOTPQuotaExceeded):
			utils.SendJSONError(w, "Daily OTP limit reached. Please try again tomorrow.", http.StatusTooManyRequests)
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendJSONError(w, "User not found", http.StatusBadRequest)
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("OTP request error")
			utils.SendJSONError(w, "Server error during OTP request", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "OTP sent to your email",
	})
}

func (a *AuthHandler) ProviderAuth(w http.ResponseWriter, r *http.Request) {
	log.Info().Str("path", r.URL.Path).Msg("Initiating authentication with provider")
	gothic.BeginAuthHandler(w, r)
}

// ProviderCallback finishes the OAuth handshake and redirects the browser back
// to the frontend, carrying the session token as a query parameter.
func (a *AuthHandler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	providerUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error completing provider authentication")
		http.Redirect(w, r, a.frontendURL+"/signin?error=google_auth_failed", http.StatusTemporaryRedirect)
		return
	}

	token, err := a.authService.HandleLogin(r.Context(), providerUser)
	if err != nil {
		log.Error().Err(err).Msg("Error handling login after provider authentication")
		http.Redirect(w, r, a.frontendURL+"/signin?error=google_auth_failed", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, a.frontendURL+"/dashboard?token="+token, http.StatusTemporaryRedirect)
}

// Me returns the identity the access guard resolved for this request.
func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
