package auth

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/mail"
	"github.com/dishant0406/lazyweb-backend/internal/models"
)

var ErrEmailRequired = errors.New("email is required")

// UserStore is the account persistence the login flow depends on.
type UserStore interface {
	GetUserByEmail(email string) (*models.User, error)
	FindOrCreate(email string) (*models.User, error)
	UpdateUser(userID uint, updates map[string]any) (*models.User, error)
}

// Service issues and verifies magic-link tokens.
type Service struct {
	users      UserStore
	mailer     mail.Mailer
	secret     []byte
	backendURL string
	log        *zap.Logger
	now        func() time.Time
}

func NewService(users UserStore, mailer mail.Mailer, secret, backendURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:      users,
		mailer:     mailer,
		secret:     []byte(secret),
		backendURL: strings.TrimRight(backendURL, "/"),
		log:        log,
		now:        time.Now,
	}
}

// MakeToken signs a token for user valid for TokenTTL.
func (s *Service) MakeToken(user *models.User) (string, error) {
	now := s.now()
	exp := now.Add(TokenTTL)
	return signToken(s.secret, Claims{
		Email:          user.Email,
		UserID:         user.ID,
		IsAdmin:        user.IsAdmin,
		ExpirationDate: exp,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
}

// SendMagicLink makes sure an account exists for email and mails it a login link.
// The link is returned so callers can log or surface it.
func (s *Service) SendMagicLink(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrEmailRequired
	}
	user, err := s.users.FindOrCreate(email)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	token, err := s.MakeToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	link := s.backendURL + "/api/auth/account?token=" + url.QueryEscape(token)
	if err := s.mailer.SendMail(user.Email, "Your Magic Link", magicLinkEmail(user.Email, link)); err != nil {
		return "", fmt.Errorf("failed to send magic link: %w", err)
	}
	s.log.Info("magic link sent", zap.Uint("userId", user.ID))
	return link, nil
}

// Verify checks tokenStr, returns the account it belongs to and stamps its last login.
func (s *Service) Verify(tokenStr string) (*models.User, error) {
	now := s.now()
	claims, err := parseToken(s.secret, tokenStr, now)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(claims.Email)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.UpdateUser(user.ID, map[string]any{"last_login_at": now.UTC()})
	if err != nil {
		s.log.Warn("failed to record login", zap.Uint("userId", user.ID), zap.Error(err))
		return user, nil
	}
	return updated, nil
}

func magicLinkEmail(username, link string) string {
	return "<h2>Hey " + html.EscapeString(username) + "</h2>\n" +
		"<p>Here's the login link you just requested:</p>\n" +
		"<p>" + html.EscapeString(link) + "</p>\n"
}
