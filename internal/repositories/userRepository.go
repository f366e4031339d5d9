package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/models"
	"highway/internal/utils"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error)
	SetOTP(ctx context.Context, userID primitive.ObjectID, code string, expires time.Time) error
	RecordOTPRequest(ctx context.Context, userID primitive.ObjectID, code string, expires, requestedAt time.Time) error
	MarkEmailVerified(ctx context.Context, userID primitive.ObjectID) error
	Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error)
	CountAll(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection("users")}
}

func (r *userRepository) observe(queryType string, status *string) func() time.Duration {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, "user", *status).Observe(v)
	}))
	return timer.ObserveDuration
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateUniqueIndex(ctx, r.collection, bson.M{"email": 1}, "email", false); err != nil {
		return err
	}
	return utils.CreateUniqueIndex(ctx, r.collection, bson.M{"google_id": 1}, "google_id", true)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	queryType := "create"
	status := "success"
	defer r.observe(queryType, &status)()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	queryType := "findByEmail"
	status := "success"
	defer r.observe(queryType, &status)()

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	queryType := "findById"
	status := "success"
	defer r.observe(queryType, &status)()

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	queryType := "findByGoogleId"
	status := "success"
	defer r.observe(queryType, &status)()

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	queryType := "update"
	status := "success"
	defer r.observe(queryType, &status)()

	updateFields["updated_at"] = time.Now()
	update := bson.M{"$set": updateFields}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error updating user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return result, nil
}

// SetOTP stores an outstanding code and its expiry in one write. Used by the
// register and login paths, which do not touch the throttle counters.
func (r *userRepository) SetOTP(ctx context.Context, userID primitive.ObjectID, code string, expires time.Time) error {
	queryType := "setOtp"
	status := "success"
	defer r.observe(queryType, &status)()

	update := bson.M{"$set": bson.M{
		"otp":         code,
		"otp_expires": expires,
		"updated_at":  time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

// RecordOTPRequest stores the code and bumps the throttle bookkeeping in one
// write. The counter is only ever incremented; the day-boundary predicate in
// the service is what retires stale counts.
func (r *userRepository) RecordOTPRequest(ctx context.Context, userID primitive.ObjectID, code string, expires, requestedAt time.Time) error {
	queryType := "recordOtpRequest"
	status := "success"
	defer r.observe(queryType, &status)()

	update := bson.M{
		"$set": bson.M{
			"otp":              code,
			"otp_expires":      expires,
			"last_otp_request": requestedAt,
			"updated_at":       time.Now(),
		},
		"$inc": bson.M{"otp_request_count": 1},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return fmt.Errorf("failed to record OTP request: %w", err)
	}
	return nil
}

// MarkEmailVerified flips the verified flag and clears the outstanding code in
// a single write, so the code-and-expiry-together invariant holds.
func (r *userRepository) MarkEmailVerified(ctx context.Context, userID primitive.ObjectID) error {
	queryType := "markEmailVerified"
	status := "success"
	defer r.observe(queryType, &status)()

	update := bson.M{
		"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now()},
		"$unset": bson.M{"otp": "", "otp_expires": ""},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error) {
	queryType := "delete"
	status := "success"
	defer r.observe(queryType, &status)()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error deleting user account")
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	return result, nil
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	queryType := "countAll"
	status := "success"
	defer r.observe(queryType, &status)()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, "user").Inc()
		log.Error().Err(err).Msg("Failed to count total users")
		return 0, fmt.Errorf("failed to count total users: %w", err)
	}
	return count, nil
}
