package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/config"
)

// Mailer delivers contact form messages.
type Mailer interface {
	Send(name, email, message string) error
}

// ErrSMTPNotConfigured is returned when no SMTP credentials are set.
var ErrSMTPNotConfigured = errors.New("SMTP credentials not configured")

// SMTPMailer sends contact messages through an SMTP relay.
type SMTPMailer struct {
	cfg config.SMTP
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(name, email, message string) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return ErrSMTPNotConfigured
	}
	to := m.cfg.To
	if to == "" {
		to = m.cfg.User
	}

	msg := composeMessage(m.cfg.User, to, name, email, message)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{to}, msg); err != nil {
		return fmt.Errorf("sending contact email: %w", err)
	}
	return nil
}

func composeMessage(from, to, name, email, message string) []byte {
	// header values come from a public form
	clean := strings.NewReplacer("\r", "", "\n", "").Replace

	subject := fmt.Sprintf("Portfolio Contact: %s", clean(name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + clean(email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// handleContact answers the htmx contact form with a result fragment.
func (s *Server) handleContact(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("fullName"))
	email := strings.TrimSpace(c.PostForm("email"))
	message := strings.TrimSpace(c.PostForm("message"))

	if name == "" || email == "" || message == "" {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, email and message.",
		})
		return
	}

	if err := s.mailer.Send(name, email, message); err != nil {
		slog.Error("contact email failed", "error", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	slog.Info("contact email sent", "visitor", visitorID(c))
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
