package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of OTP codes issued, by flow.",
	}, []string{"flow"}) // flow: "register", "login" or "request"
	OTPDeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_delivery_failures_total",
		Help: "Total number of OTP emails that failed to send. Issuance still succeeds; the code is recoverable from the logs.",
	})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"status"}) // status: "success" or "failed"

	// Application-Specific Feature Usage Metrics
	NoteCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_note_created_total",
		Help: "Total number of notes created.",
	})
)
