package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/models"
)

// EmailService plain-text SMTP sender for school notifications
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates the email service
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// CardDepletedNoticeInput depletion notice input
type CardDepletedNoticeInput struct {
	SchoolName string
	Pin        string
	BatchNo    string
	UsageCount int
	LastUsedAt *time.Time
}

// SendCardDepletedNotice tells a school's contact address that one of
// its cards has used up its last check.
func (s *EmailService) SendCardDepletedNotice(toEmail string, input CardDepletedNoticeInput) error {
	subject := fmt.Sprintf("Scratch card %s depleted", maskPin(input.Pin))
	lines := []string{
		fmt.Sprintf("A scratch card issued by %s has no checks remaining.", input.SchoolName),
		"",
		fmt.Sprintf("Card: %s", maskPin(input.Pin)),
	}
	if strings.TrimSpace(input.BatchNo) != "" {
		lines = append(lines, fmt.Sprintf("Batch: %s", input.BatchNo))
	}
	lines = append(lines, fmt.Sprintf("Total checks used: %d", input.UsageCount))
	if input.LastUsedAt != nil {
		lines = append(lines, fmt.Sprintf("Last used: %s", input.LastUsedAt.Format(time.RFC1123)))
	}
	return s.sendTextEmail(toEmail, subject, strings.Join(lines, "\n"))
}

// SendCustomEmail sends a test or ad-hoc email
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP configuration test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is an SMTP test email. Receiving it means the current configuration can send mail."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s == nil || s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailSendFailed
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrEmailSendFailed
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

// maskPin keeps the first and last two characters. Depletion notices may
// be forwarded around a school office; the full pin has no business there.
func maskPin(pin string) string {
	pin = strings.TrimSpace(pin)
	if len(pin) <= 4 {
		return pin
	}
	return pin[:2] + strings.Repeat("*", len(pin)-4) + pin[len(pin)-2:]
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// CardDepletedNotice builds the notice input from the stored rows
func CardDepletedNotice(card *models.ScratchCard, school *models.School) (string, CardDepletedNoticeInput, bool) {
	if card == nil || school == nil {
		return "", CardDepletedNoticeInput{}, false
	}
	toEmail := strings.TrimSpace(school.NotificationEmail)
	if toEmail == "" {
		return "", CardDepletedNoticeInput{}, false
	}
	input := CardDepletedNoticeInput{
		SchoolName: school.Name,
		Pin:        card.Pin,
		UsageCount: card.UsageCount,
		LastUsedAt: card.LastUsedAt,
	}
	if card.Batch != nil {
		input.BatchNo = card.Batch.BatchNo
	}
	return toEmail, input, true
}
