package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserJSONNeverLeaksOTPState(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute)
	last := time.Now()
	user := User{
		ID:              primitive.NewObjectID(),
		Email:           "jane@example.com",
		Name:            "Jane Doe",
		GoogleID:        "gid-1",
		OTP:             "123456",
		OTPExpires:      &expires,
		LastOTPRequest:  &last,
		OTPRequestCount: 3,
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "123456")
	assert.NotContains(t, string(data), "otp")
	assert.NotContains(t, string(data), "gid-1")
	assert.Contains(t, string(data), "jane@example.com")
}

func TestSanitize(t *testing.T) {
	expires := time.Now()
	user := User{OTP: "123456", OTPExpires: &expires, LastOTPRequest: &expires, OTPRequestCount: 5}

	user.Sanitize()

	assert.Empty(t, user.OTP)
	assert.Nil(t, user.OTPExpires)
	assert.Nil(t, user.LastOTPRequest)
	assert.Zero(t, user.OTPRequestCount)
}
