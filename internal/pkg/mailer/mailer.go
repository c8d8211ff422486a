// Package mailer delivers transactional mail (welcome, password reset).
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer is what the auth service depends on; tests substitute a fake to
// exercise the delivery-failure path.
type Mailer interface {
	SendWelcome(to, name string) error
	SendPasswordReset(to, name, resetURL string) error
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SMTPMailer struct {
	conf *SMTPConfig
}

func NewSMTPMailer(conf *SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		conf: conf,
	}
}

func (m *SMTPMailer) SendWelcome(to, name string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nWelcome to the Trailpost family! We're glad to have you.\r\n", name)

	return m.send(to, "Welcome to Trailpost!", body)
}

func (m *SMTPMailer) SendPasswordReset(to, name, resetURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nForgot your password? Submit a new one at %s.\r\nThe link is valid for 10 minutes. If you didn't request this, ignore this email.\r\n",
		name, resetURL)

	return m.send(to, "Your password reset token", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.conf.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.conf.Host, m.conf.Port)

	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	}

	if err := smtp.SendMail(addr, auth, m.conf.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp.SendMail -> %w", err)
	}

	return nil
}
