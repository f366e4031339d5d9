package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the single source of truth for identity and the OTP lifecycle.
// OTP state lives on the user document itself; code and expiry are always set
// and cleared together.
type User struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email           string             `json:"email" bson:"email"`
	Name            string             `json:"name" bson:"name"`
	DateOfBirth     *time.Time         `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	GoogleID        string             `json:"-" bson:"google_id,omitempty"`
	IsEmailVerified bool               `json:"isEmailVerified" bson:"is_email_verified"`

	OTP             string     `json:"-" bson:"otp,omitempty"`
	OTPExpires      *time.Time `json:"-" bson:"otp_expires,omitempty"`
	LastOTPRequest  *time.Time `json:"-" bson:"last_otp_request,omitempty"`
	OTPRequestCount int        `json:"-" bson:"otp_request_count,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Sanitize clears the OTP state so a user attached to a request context never
// carries outstanding secrets downstream.
func (u *User) Sanitize() {
	u.OTP = ""
	u.OTPExpires = nil
	u.LastOTPRequest = nil
	u.OTPRequestCount = 0
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type UserProfileUpdate struct {
	Name *string `json:"name,omitempty"`
}
