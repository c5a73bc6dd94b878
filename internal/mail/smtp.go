package mail

import (
	"crypto/tls"
	"errors"
	"net"
	"net/smtp"

	"github.com/dishant0406/lazyweb-backend/internal/config"
)

var ErrNotConfigured = errors.New("SMTP not configured")

var dialTLS = func(addr string, cfg *tls.Config) (net.Conn, error) {
	return tls.Dial("tcp", addr, cfg)
}

// Mailer delivers HTML mail.
type Mailer interface {
	SendMail(to, subject, html string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendMail(to, subject, html string) error {
	cfg := m.cfg
	if cfg.User == "" || cfg.Pass == "" || cfg.From == "" {
		return ErrNotConfigured
	}

	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	msg := buildMessage(cfg.From, to, subject, html)

	// implicit TLS on 465, STARTTLS via smtp.SendMail otherwise
	if cfg.Port != "465" {
		return smtp.SendMail(addr, auth, cfg.From, []string{to}, msg)
	}

	conn, err := dialTLS(addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()
	if err = c.Auth(auth); err != nil {
		return err
	}
	if err = c.Mail(cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write(msg); err != nil {
		return err
	}
	return wc.Close()
}

func buildMessage(from, to, subject, html string) []byte {
	return []byte("From: \"Lazyweb\" <" + from + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		html + "\r\n")
}
