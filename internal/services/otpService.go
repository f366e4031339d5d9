package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"highway/internal/metrics"
	"highway/internal/models"
	"highway/internal/repositories"
	"highway/internal/utils"
)

const (
	OTPExpiration = 10 * time.Minute
	OTPCooldown   = time.Minute
	OTPDailyQuota = 10
)

var nameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
var otpRe = regexp.MustCompile(`^\d{6}$`)

// OTPService drives the email-OTP lifecycle: issuance on register/login,
// throttled re-requests, and verification that mints a session token.
type OTPService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email string) (*models.User, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error)
}

type otpService struct {
	userRepo     repositories.UserRepository
	emailService EmailService
	tokenService TokenService

	// now is swapped out in tests to drive expiry and day-boundary behavior.
	now func() time.Time
}

func NewOTPService(userRepo repositories.UserRepository, emailService EmailService, tokenService TokenService) OTPService {
	return &otpService{
		userRepo:     userRepo,
		emailService: emailService,
		tokenService: tokenService,
		now:          time.Now,
	}
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: please provide a valid email address", ErrValidation)
	}
	return email, nil
}

func (s *otpService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be between 2 and 50 characters", ErrValidation)
	}
	if !nameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: name can only contain letters and spaces", ErrValidation)
	}

	var dob *time.Time
	if strings.TrimSpace(req.DateOfBirth) != "" {
		parsed, err := parseDate(req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("%w: please provide a valid date of birth", ErrValidation)
		}
		dob = &parsed
	}

	user := &models.User{
		Email:           email,
		Name:            name,
		DateOfBirth:     dob,
		IsEmailVerified: false,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", email).Msg("Registration attempt with existing email")
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", created.ID.Hex()).Str("email", email).Msg("User registered")

	if err := s.issue(ctx, created, "register"); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *otpService) Login(ctx context.Context, email string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.issue(ctx, user, "login"); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestOTP is the explicit re-request path and the only one that throttles:
// a 60-second cooldown, then a daily quota evaluated against local midnight.
// The counter is never reset; once the calendar day rolls over the same-day
// predicate fails and the stale count stops mattering.
func (s *otpService) RequestOTP(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	now := s.now()

	if user.LastOTPRequest != nil {
		elapsed := now.Sub(*user.LastOTPRequest)
		if elapsed < OTPCooldown {
			remaining := int(math.Ceil((OTPCooldown - elapsed).Seconds()))
			return &OTPCooldownError{RetryAfterSeconds: remaining}
		}
	}

	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if user.OTPRequestCount >= OTPDailyQuota && user.LastOTPRequest != nil && !user.LastOTPRequest.Before(midnight) {
		return ErrOTPQuotaExceeded
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	expires := now.Add(OTPExpiration)

	if err := s.userRepo.RecordOTPRequest(ctx, user.ID, code, expires, now); err != nil {
		return err
	}

	metrics.OTPIssuedTotal.WithLabelValues("request").Inc()
	s.deliver(user.Email, code)
	return nil
}

func (s *otpService) VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", nil, err
	}
	if !otpRe.MatchString(code) {
		return "", nil, fmt.Errorf("%w: OTP must be exactly 6 digits", ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	if user.OTP == "" || user.OTPExpires == nil {
		metrics.OTPVerificationsTotal.WithLabelValues("failed").Inc()
		return "", nil, ErrNoOTP
	}
	if user.OTP != code {
		metrics.OTPVerificationsTotal.WithLabelValues("failed").Inc()
		return "", nil, ErrInvalidOTP
	}
	if s.now().After(*user.OTPExpires) {
		metrics.OTPVerificationsTotal.WithLabelValues("failed").Inc()
		return "", nil, ErrOTPExpired
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return "", nil, err
	}
	user.IsEmailVerified = true
	user.Sanitize()

	token, err := s.tokenService.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token after OTP verification")
		return "", nil, fmt.Errorf("could not generate token: %w", err)
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("OTP verified")
	return token, user, nil
}

// issue stores a fresh code on the user and sends it. Persistence failure is
// the only failure that matters here; delivery problems are logged and counted
// but never fail the flow.
func (s *otpService) issue(ctx context.Context, user *models.User, flow string) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OTP")
		return err
	}

	expires := s.now().Add(OTPExpiration)
	if err := s.userRepo.SetOTP(ctx, user.ID, code, expires); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to store OTP")
		return err
	}

	metrics.OTPIssuedTotal.WithLabelValues(flow).Inc()
	s.deliver(user.Email, code)
	return nil
}

// deliver sends the code by email. On failure the code is surfaced through the
// log so an operator can recover it; the request itself still succeeds.
func (s *otpService) deliver(email, code string) {
	if err := s.emailService.SendOTPEmail(email, code); err != nil {
		metrics.OTPDeliveryFailuresTotal.Inc()
		log.Warn().Err(err).Str("email", email).Str("otp", code).Msg("OTP email delivery failed; code logged for manual recovery")
	}
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
