package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/models"
	"highway/internal/repositories"
)

// UserService covers profile management for authenticated users.
type UserService interface {
	GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, userID primitive.ObjectID) error
	GetTotalUsers(ctx context.Context) (int64, error)
}

type userService struct {
	userRepo        repositories.UserRepository
	totalUsersGauge prometheus.Gauge
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	s := &userService{
		userRepo: userRepo,
		totalUsersGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "app_total_users",
			Help: "Total number of registered users in the application.",
		}),
	}
	go s.updateTotalUsersPeriodically()
	return s
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountAll(ctx)
}

func (s *userService) updateTotalUsersPeriodically() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		count, err := s.GetTotalUsers(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error updating total users gauge")
		} else {
			s.totalUsersGauge.Set(float64(count))
		}
		cancel()
	}
}

func (s *userService) GetUserProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to fetch user profile")
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	user.Sanitize()
	return user, nil
}

func (s *userService) UpdateUserProfile(ctx context.Context, userID primitive.ObjectID, updatePayload *models.UserProfileUpdate) (*models.User, error) {
	updateFields := bson.M{}
	if updatePayload.Name != nil {
		name := strings.TrimSpace(*updatePayload.Name)
		if len(name) < 2 || len(name) > 50 {
			return nil, fmt.Errorf("%w: name must be between 2 and 50 characters", ErrValidation)
		}
		updateFields["name"] = name
	}

	if len(updateFields) == 0 {
		return nil, fmt.Errorf("%w: no valid fields provided for update", ErrValidation)
	}

	result, err := s.userRepo.Update(ctx, userID, updateFields)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		log.Warn().Str("user_id", userID.Hex()).Msg("User not found for profile update")
		return nil, ErrUserNotFound
	}

	updatedUser, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error fetching updated user profile")
		return nil, fmt.Errorf("failed to retrieve updated user profile: %w", err)
	}
	updatedUser.Sanitize()

	log.Info().Str("user_id", userID.Hex()).Msg("User profile updated")
	return updatedUser, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	result, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		log.Warn().Str("user_id", userID.Hex()).Msg("User account not found for deletion")
		return ErrUserNotFound
	}

	log.Info().Str("user_id", userID.Hex()).Msg("User account deleted")
	return nil
}
