package auth

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishant0406/lazyweb-backend/internal/models"
	"github.com/dishant0406/lazyweb-backend/internal/repositories"
	"github.com/dishant0406/lazyweb-backend/internal/testhelpers"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendMail(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func newTestService(t *testing.T, mailer *fakeMailer) *Service {
	repo := &repositories.UserRepository{DB: testhelpers.SetupTestDB(t)}
	return NewService(repo, mailer, "test-secret", "http://rooms.test/", nil)
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/account", u.Path)
	return u.Query().Get("token")
}

func TestSendMagicLinkAndVerify(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(t, mailer)

	link, err := svc.SendMagicLink("Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://rooms.test/api/auth/account?token="))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)
	assert.Equal(t, "Your Magic Link", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Hey alice@example.com")

	user, err := svc.Verify(tokenFromLink(t, link))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestVerifyRecordsLastLogin(t *testing.T) {
	svc := newTestService(t, &fakeMailer{})
	loginAt := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return loginAt }

	link, err := svc.SendMagicLink("erin@example.com")
	require.NoError(t, err)

	user, err := svc.Verify(tokenFromLink(t, link))
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.WithinDuration(t, loginAt, *user.LastLoginAt, time.Second)

	stored, err := svc.users.GetUserByEmail("erin@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.WithinDuration(t, loginAt, *stored.LastLoginAt, time.Second)
}

func TestSendMagicLinkRejectsBadEmail(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(t, mailer)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.SendMagicLink(email)
		assert.ErrorIs(t, err, ErrEmailRequired)
	}
	assert.Empty(t, mailer.sent)
}

func TestSendMagicLinkMailerFailure(t *testing.T) {
	svc := newTestService(t, &fakeMailer{err: errors.New("smtp down")})

	_, err := svc.SendMagicLink("bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := newTestService(t, &fakeMailer{})
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	link, err := svc.SendMagicLink("carol@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = svc.Verify(tokenFromLink(t, link))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newTestService(t, &fakeMailer{})
	other := NewService(nil, nil, "other-secret", "", nil)

	tok, err := other.MakeToken(&models.User{Email: "eve@example.com"})
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyUnknownUser(t *testing.T) {
	svc := newTestService(t, &fakeMailer{})

	tok, err := svc.MakeToken(&models.User{Email: "ghost@example.com"})
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/auth/account?token=abc", nil)
	tok, err := TokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	req = httptest.NewRequest("GET", "/api/auth/account", nil)
	req.Header.Set("Authorization", "Bearer xyz")
	tok, err = TokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	req = httptest.NewRequest("GET", "/api/auth/account", nil)
	req.Header.Set("Authorization", "Basic xyz")
	_, err = TokenFromRequest(req)
	assert.ErrorIs(t, err, ErrMissingAuthHeader)

	req = httptest.NewRequest("GET", "/api/auth/account", nil)
	_, err = TokenFromRequest(req)
	assert.ErrorIs(t, err, ErrMissingAuthHeader)
}
