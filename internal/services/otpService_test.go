package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/config"
	"highway/internal/models"
)

// --- Mock Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, userID, updateFields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func (m *mockUserRepository) SetOTP(ctx context.Context, userID primitive.ObjectID, code string, expires time.Time) error {
	args := m.Called(ctx, userID, code, expires)
	return args.Error(0)
}

func (m *mockUserRepository) RecordOTPRequest(ctx context.Context, userID primitive.ObjectID, code string, expires, requestedAt time.Time) error {
	args := m.Called(ctx, userID, code, expires, requestedAt)
	return args.Error(0)
}

func (m *mockUserRepository) MarkEmailVerified(ctx context.Context, userID primitive.ObjectID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, userID primitive.ObjectID) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func (m *mockUserRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Fake Email Service ---

type fakeEmailService struct {
	sent []string
	err  error
}

func (f *fakeEmailService) SendOTPEmail(to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, code)
	return nil
}

func testTokenService() TokenService {
	return NewTokenService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
}

func newTestOTPService(repo *mockUserRepository, email *fakeEmailService) *otpService {
	return NewOTPService(repo, email, testTokenService()).(*otpService)
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

// --- Register ---

func TestRegisterValidation(t *testing.T) {
	svc := newTestOTPService(&mockUserRepository{}, &fakeEmailService{})

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"bad email", models.RegisterRequest{Email: "not-an-email", Name: "Jane Doe"}},
		{"short name", models.RegisterRequest{Email: "jane@example.com", Name: "J"}},
		{"digits in name", models.RegisterRequest{Email: "jane@example.com", Name: "Jane 99"}},
		{"bad date of birth", models.RegisterRequest{Email: "jane@example.com", Name: "Jane Doe", DateOfBirth: "not-a-date"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, duplicateKeyErr())

	svc := newTestOTPService(repo, &fakeEmailService{})

	_, err := svc.Register(context.Background(), &models.RegisterRequest{Email: "jane@example.com", Name: "Jane Doe"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterIssuesOTP(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &mockUserRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Email: "jane@example.com", Name: "Jane Doe"}, nil)
	repo.On("SetOTP", mock.Anything, userID, mock.MatchedBy(func(code string) bool {
		return len(code) == 6 && code[0] != '0'
	}), mock.Anything).Return(nil)

	email := &fakeEmailService{}
	svc := newTestOTPService(repo, email)

	user, err := svc.Register(context.Background(), &models.RegisterRequest{Email: "Jane@Example.com", Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	require.Len(t, email.sent, 1)
	repo.AssertExpectations(t)
}

func TestRegisterSucceedsWhenEmailDeliveryFails(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &mockUserRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(&models.User{ID: userID, Email: "jane@example.com", Name: "Jane Doe"}, nil)
	repo.On("SetOTP", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil)

	email := &fakeEmailService{err: errors.New("smtp connection refused")}
	svc := newTestOTPService(repo, email)

	_, err := svc.Register(context.Background(), &models.RegisterRequest{Email: "jane@example.com", Name: "Jane Doe"})
	assert.NoError(t, err)
}

// --- Login ---

func TestLoginUnknownUser(t *testing.T) {
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, mongo.ErrNoDocuments)

	svc := newTestOTPService(repo, &fakeEmailService{})

	_, err := svc.Login(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// --- RequestOTP throttling ---

func TestRequestOTPCooldown(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	last := now.Add(-20 * time.Second)

	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:             primitive.NewObjectID(),
		Email:          "jane@example.com",
		LastOTPRequest: &last,
	}, nil)

	svc := newTestOTPService(repo, &fakeEmailService{})
	svc.now = func() time.Time { return now }

	err := svc.RequestOTP(context.Background(), "jane@example.com")
	var cooldown *OTPCooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, cooldown.RetryAfterSeconds, 60)
	assert.Equal(t, 40, cooldown.RetryAfterSeconds)
}

func TestRequestOTPDailyQuota(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	last := now.Add(-2 * time.Hour) // same calendar day, outside cooldown

	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:              primitive.NewObjectID(),
		Email:           "jane@example.com",
		LastOTPRequest:  &last,
		OTPRequestCount: 10,
	}, nil)

	svc := newTestOTPService(repo, &fakeEmailService{})
	svc.now = func() time.Time { return now }

	err := svc.RequestOTP(context.Background(), "jane@example.com")
	assert.ErrorIs(t, err, ErrOTPQuotaExceeded)
}

func TestRequestOTPQuotaLiftsAfterDayRollover(t *testing.T) {
	now := time.Date(2025, 6, 16, 0, 30, 0, 0, time.Local)
	last := time.Date(2025, 6, 15, 23, 0, 0, 0, time.Local) // yesterday

	userID := primitive.NewObjectID()
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:              userID,
		Email:           "jane@example.com",
		LastOTPRequest:  &last,
		OTPRequestCount: 10, // stale count from yesterday, never reset
	}, nil)
	repo.On("RecordOTPRequest", mock.Anything, userID, mock.Anything, mock.Anything, now).Return(nil)

	email := &fakeEmailService{}
	svc := newTestOTPService(repo, email)
	svc.now = func() time.Time { return now }

	err := svc.RequestOTP(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	repo.AssertExpectations(t)
}

func TestRequestOTPDeliveryFailureIsSwallowed(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:    userID,
		Email: "jane@example.com",
	}, nil)
	repo.On("RecordOTPRequest", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestOTPService(repo, &fakeEmailService{err: errors.New("smtp down")})

	err := svc.RequestOTP(context.Background(), "jane@example.com")
	assert.NoError(t, err)
}

// --- VerifyOTP ---

func TestVerifyOTPSuccessClearsCode(t *testing.T) {
	now := time.Now()
	expires := now.Add(5 * time.Minute)
	userID := primitive.NewObjectID()

	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:         userID,
		Email:      "jane@example.com",
		OTP:        "123456",
		OTPExpires: &expires,
	}, nil)
	repo.On("MarkEmailVerified", mock.Anything, userID).Return(nil)

	svc := newTestOTPService(repo, &fakeEmailService{})
	svc.now = func() time.Time { return now }

	token, user, err := svc.VerifyOTP(context.Background(), "jane@example.com", "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsEmailVerified)
	assert.Empty(t, user.OTP)
	assert.Nil(t, user.OTPExpires)

	// Token round-trips back to the same user.
	id, err := testTokenService().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), id)

	repo.AssertExpectations(t)
}

func TestVerifyOTPSecondUseFails(t *testing.T) {
	// After a successful verify the code is cleared, so the same code again
	// hits the no-outstanding-code state.
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:              primitive.NewObjectID(),
		Email:           "jane@example.com",
		IsEmailVerified: true,
	}, nil)

	svc := newTestOTPService(repo, &fakeEmailService{})

	_, _, err := svc.VerifyOTP(context.Background(), "jane@example.com", "123456")
	assert.ErrorIs(t, err, ErrNoOTP)
}

func TestVerifyOTPMismatch(t *testing.T) {
	expires := time.Now().Add(5 * time.Minute)
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:         primitive.NewObjectID(),
		Email:      "jane@example.com",
		OTP:        "123456",
		OTPExpires: &expires,
	}, nil)

	svc := newTestOTPService(repo, &fakeEmailService{})

	_, _, err := svc.VerifyOTP(context.Background(), "jane@example.com", "654321")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPExpired(t *testing.T) {
	issued := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(10 * time.Minute)

	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(&models.User{
		ID:         primitive.NewObjectID(),
		Email:      "jane@example.com",
		OTP:        "123456",
		OTPExpires: &expires,
	}, nil)

	svc := newTestOTPService(repo, &fakeEmailService{})
	svc.now = func() time.Time { return issued.Add(11 * time.Minute) }

	_, _, err := svc.VerifyOTP(context.Background(), "jane@example.com", "123456")
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	repo := &mockUserRepository{}
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, mongo.ErrNoDocuments)

	svc := newTestOTPService(repo, &fakeEmailService{})

	_, _, err := svc.VerifyOTP(context.Background(), "ghost@example.com", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyOTPRejectsMalformedCode(t *testing.T) {
	svc := newTestOTPService(&mockUserRepository{}, &fakeEmailService{})

	for _, code := range []string{"12345", "1234567", "12345a", ""} {
		_, _, err := svc.VerifyOTP(context.Background(), "jane@example.com", code)
		assert.ErrorIs(t, err, ErrValidation, "code %q", code)
	}
}
