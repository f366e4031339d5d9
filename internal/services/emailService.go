package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"highway/internal/config"
)

type EmailService interface {
	SendOTPEmail(to, code string) error
}

type emailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) EmailService {
	return &emailService{cfg: cfg}
}

func (e *emailService) SendOTPEmail(to, code string) error {
	m := gomail.NewMessage()

	m.SetHeader("From", e.cfg.EmailFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your OTP for Highway Notes")
	m.SetBody("text/html", fmt.Sprintf(
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Your Verification Code</h2>
  <div style="font-size: 32px; font-weight: bold; letter-spacing: 3px;">%s</div>
  <p>This code will expire in 10 minutes.</p>
  <p style="color: #6B7280; font-size: 12px;">If you didn't request this code, you can ignore this email.</p>
</div>`, code))

	d := gomail.NewDialer(e.cfg.SMTPHost, e.cfg.SMTPPort, e.cfg.SMTPUsername, e.cfg.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return err
	}
	return nil
}
