package mail

import (
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dishant0406/lazyweb-backend/internal/config"
)

func TestSendMailRequiresCredentials(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587"})
	if err := m.SendMail("a@example.com", "hi", "<p>hi</p>"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewSMTPMailerDefaultsFromToUser(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{User: "bot@example.com"})
	if m.cfg.From != "bot@example.com" {
		t.Fatalf("expected from to default to user, got %q", m.cfg.From)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("admin@lazyweb.rocks", "bob@example.com", "Your Magic Link", "<h2>Hey</h2>"))
	for _, want := range []string{
		"To: bob@example.com\r\n",
		"Subject: Your Magic Link\r\n",
		"Content-Type: text/html",
		"<h2>Hey</h2>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendMailClosesConnOnBadGreeting(t *testing.T) {
	client, server := net.Pipe()
	origDial := dialTLS
	t.Cleanup(func() { dialTLS = origDial })
	dialTLS = func(addr string, cfg *tls.Config) (net.Conn, error) {
		if addr != "smtp.example.com:465" || cfg.ServerName != "smtp.example.com" {
			t.Errorf("unexpected dial %s (%s)", addr, cfg.ServerName)
		}
		return client, nil
	}

	closed := make(chan error, 1)
	go func() {
		_, _ = server.Write([]byte("554 service unavailable\r\n"))
		buf := make([]byte, 1)
		_, err := server.Read(buf)
		closed <- err
	}()

	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "465", User: "bot@example.com", Pass: "pw"})
	if err := m.SendMail("a@example.com", "hi", "<p>hi</p>"); err == nil {
		t.Fatalf("expected greeting error")
	}

	select {
	case err := <-closed:
		if err == nil {
			t.Fatalf("expected connection to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("connection left open after failed greeting")
	}
}
