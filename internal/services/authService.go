package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/config"
	"highway/internal/metrics"
	"highway/internal/models"
	"highway/internal/repositories"
)

const sessionMaxAge = 86400 * 30

// AuthService reconciles an external OAuth identity against the user store:
// match by provider id, fall back to email (silent account merge), else create
// a pre-verified user. It then mints a session token for the resolved user.
type AuthService interface {
	HandleLogin(ctx context.Context, u goth.User) (string, error)
}

type authService struct {
	userRepo     repositories.UserRepository
	tokenService TokenService
}

func NewAuthService(userRepo repositories.UserRepository, tokenService TokenService) AuthService {
	return &authService{userRepo: userRepo, tokenService: tokenService}
}

// InitializeGoth wires the Google provider and the cookie store gothic uses to
// track the OAuth handshake. Call once, before the server starts.
func InitializeGoth(cfg *config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.MaxAge(sessionMaxAge)

	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	goth.UseProviders(
		google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL),
	)
	log.Info().Msg("Goth providers initialized")
}

func (a *authService) HandleLogin(ctx context.Context, u goth.User) (string, error) {
	log.Info().Str("email", u.Email).Str("provider", u.Provider).Msg("Handling federated login")
	if u.UserID == "" {
		return "", errors.New("missing provider user id")
	}

	user, err := a.resolve(ctx, u)
	if err != nil {
		return "", err
	}

	token, err := a.tokenService.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Error generating token for federated user")
		return "", errors.New("error generating token")
	}

	return token, nil
}

func (a *authService) resolve(ctx context.Context, u goth.User) (*models.User, error) {
	user, err := a.userRepo.FindByGoogleID(ctx, u.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Error().Err(err).Msg("Error finding user by provider id")
		return nil, errors.New("error finding user by provider id")
	}

	if u.Email == "" {
		return nil, errors.New("missing email in provider user data")
	}

	email, err := NormalizeEmail(u.Email)
	if err != nil {
		return nil, err
	}

	user, err = a.userRepo.FindByEmail(ctx, email)
	if err == nil {
		// Existing local account gains federated login.
		if _, err := a.userRepo.Update(ctx, user.ID, bson.M{"google_id": u.UserID}); err != nil {
			log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Error attaching provider id to user")
			return nil, errors.New("error attaching provider id")
		}
		user.GoogleID = u.UserID
		log.Info().Str("user_id", user.ID.Hex()).Msg("Attached provider id to existing account")
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Error().Err(err).Str("email", email).Msg("Error finding user by email")
		return nil, errors.New("error finding user by email")
	}

	// Federated identity is trusted as pre-verified.
	newUser := &models.User{
		Email:           email,
		Name:            u.Name,
		GoogleID:        u.UserID,
		IsEmailVerified: true,
	}
	created, err := a.userRepo.Create(ctx, newUser)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error creating federated user")
		return nil, errors.New("error creating user")
	}

	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", created.ID.Hex()).Str("email", email).Msg("New federated user created")
	return created, nil
}
