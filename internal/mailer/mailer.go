package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"time"

	"github.com/petcarehq/petcare/internal/config"
)

// Notifier is the single send contract the session operations depend on.
// Send failures are the caller's to log; no operation treats them as fatal.
type Notifier interface {
	Send(to, subject, body string) error
}

// New picks a provider from config. Unknown providers fall back to the
// console sink so local development never needs credentials.
func New(cfg *config.Config) Notifier {
	switch cfg.EmailProvider {
	case "resend":
		return &ResendMailer{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
	case "smtp":
		return &SMTPMailer{cfg: cfg}
	default:
		return &ConsoleMailer{}
	}
}

type SMTPMailer struct {
	cfg *config.Config
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.cfg.EmailFromName, m.cfg.EmailFrom, to, subject, body)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	return smtp.SendMail(addr, auth, m.cfg.EmailFrom, []string{to}, []byte(msg))
}

// ResendMailer posts to the Resend transactional email API.
type ResendMailer struct {
	cfg    *config.Config
	client *http.Client
}

func (m *ResendMailer) Send(to, subject, body string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    fmt.Sprintf("%s <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		"to":      []string{to},
		"subject": subject,
		"html":    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API returned %d", resp.StatusCode)
	}
	return nil
}

// ConsoleMailer logs instead of sending. Default in development and tests.
type ConsoleMailer struct{}

func (m *ConsoleMailer) Send(to, subject, body string) error {
	log.Printf("📧 [console mailer] to=%s subject=%q", to, subject)
	return nil
}
