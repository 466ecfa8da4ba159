package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/request_models"
)

const (
	CookieName = "food_insight_session"
	contextKey = "session"
)

// Session is the per-request handle on a browser session. Mutators mark it dirty; the
// response helpers and the middleware persist dirty sessions.
type Session struct {
	ID    string
	data  *Data
	store Store
	ttl   time.Duration
	dirty bool
}

func (s *Session) AccountID() string          { return s.data.AccountID }
func (s *Session) UserName() string           { return s.data.UserName }
func (s *Session) UserGender() string         { return s.data.UserGender }
func (s *Session) IsAdmin() bool              { return s.data.Admin }
func (s *Session) AdminUsername() string      { return s.data.AdminUsername }
func (s *Session) LoggedIn() bool             { return s.data.AccountID != "" }
func (s *Session) VerificationEmail() string  { return s.data.VerificationEmail }
func (s *Session) Pending() *request_models.PendingRegistration {
	return s.data.Pending
}

func (s *Session) LogIn(account *db_models.Account) {
	s.data.AccountID = account.ID.String()
	s.data.UserName = account.Name
	s.data.UserGender = account.Gender
	s.dirty = true
}

func (s *Session) LogInAdmin(username string) {
	s.data.Admin = true
	s.data.AdminUsername = username
	s.dirty = true
}

func (s *Session) LogOutAdmin() {
	s.data.Admin = false
	s.data.AdminUsername = ""
	s.dirty = true
}

func (s *Session) SetVerificationEmail(email string) {
	s.data.VerificationEmail = email
	s.dirty = true
}

func (s *Session) SetPending(p *request_models.PendingRegistration) {
	s.data.Pending = p
	s.dirty = true
}

// ClearRegistration drops both the pending profile and the email under verification.
func (s *Session) ClearRegistration() {
	s.data.Pending = nil
	s.data.VerificationEmail = ""
	s.dirty = true
}

func (s *Session) CaptchaCode(purpose string) string {
	return s.data.Captcha[purpose]
}

func (s *Session) SetCaptchaCode(purpose, code string) {
	if s.data.Captcha == nil {
		s.data.Captcha = make(map[string]string)
	}
	s.data.Captcha[purpose] = code
	s.dirty = true
}

func (s *Session) AddFlash(msg string) {
	s.data.Flashes = append(s.data.Flashes, msg)
	s.dirty = true
}

// Flashes returns and removes pending flash messages.
func (s *Session) Flashes() []string {
	f := s.data.Flashes
	if len(f) > 0 {
		s.data.Flashes = nil
		s.dirty = true
	}
	return f
}

// Clear forgets everything, including login state.
func (s *Session) Clear() {
	s.data = &Data{}
	s.dirty = true
}

func (s *Session) Save(ctx context.Context) error {
	if !s.dirty || s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.ID, s.data, s.ttl); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// New returns a detached session backed by store, mostly for tests and background callers.
func New(id string, store Store, ttl time.Duration) *Session {
	return &Session{ID: id, data: &Data{}, store: store, ttl: ttl}
}

// Manager issues the signed session cookie and binds a Session to every request.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	logger *zap.Logger
}

func NewManager(store Store, secret []byte, ttl time.Duration, secure bool, logger *zap.Logger) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, logger: logger}
}

func (m *Manager) Store() Store { return m.store }

func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := m.load(ctx, c)

		c.SetSameSite(http.SameSiteLaxMode)
		if token, err := m.issueToken(sess.ID); err != nil {
			m.logger.Error("sign session cookie", zap.Error(err))
		} else {
			c.SetCookie(CookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
		}

		c.Set(contextKey, sess)
		c.Next()

		if err := sess.Save(ctx); err != nil {
			m.logger.Error("save session", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
}

func (m *Manager) load(ctx context.Context, c *gin.Context) *Session {
	if raw, err := c.Cookie(CookieName); err == nil {
		if id, err := m.parseToken(raw); err == nil {
			data, err := m.store.Load(ctx, id)
			if err != nil {
				m.logger.Warn("load session", zap.String("session_id", id), zap.Error(err))
			}
			if data != nil {
				return &Session{ID: id, data: data, store: m.store, ttl: m.ttl}
			}
		}
	}
	s := New(uuid.NewString(), m.store, m.ttl)
	s.dirty = true
	return s
}

func (m *Manager) issueToken(id string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

var errInvalidSessionToken = errors.New("invalid session token")

func (m *Manager) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", errInvalidSessionToken
	}
	return claims.Subject, nil
}

// Default returns the request's session. Outside the middleware it returns an unsaved one.
func Default(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s := New(uuid.NewString(), nil, 0)
	c.Set(contextKey, s)
	return s
}
