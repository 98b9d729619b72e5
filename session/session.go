// Package session keeps admin login state in Redis behind a signed cookie.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	CookieName = "gs.sid"
	contextKey = "session"
	keyPrefix  = "sess:"
)

// OTP is a pending second login factor.
type OTP struct {
	Code     string    `json:"code"`
	Expiry   time.Time `json:"expiry"`
	Attempts int       `json:"attempts"`
}

type Data struct {
	IsAdmin    bool   `json:"isAdmin"`
	AdminEmail string `json:"adminEmail,omitempty"`
	OTP        *OTP   `json:"otp,omitempty"`
}

type Session struct {
	ID   string
	Data Data
	// isNew sessions are only persisted once something is stored in them.
	isNew bool
}

type Store struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewStore(client *redis.Client, secret string, ttl time.Duration, secure bool) *Store {
	return &Store{client: client, secret: []byte(secret), ttl: ttl, secure: secure}
}

// Middleware loads the request's session into the echo context.
func (s *Store) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := s.load(c)
			if err != nil {
				c.Logger().Warnf("session load failed: %v", err)
				sess = s.newSession()
			}
			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// Get returns the session loaded by Middleware, or a fresh one.
func Get(c echo.Context) *Session {
	if sess, ok := c.Get(contextKey).(*Session); ok {
		return sess
	}
	sess := &Session{ID: uuid.NewString(), isNew: true}
	c.Set(contextKey, sess)
	return sess
}

func (s *Store) newSession() *Session {
	return &Session{ID: uuid.NewString(), isNew: true}
}

func (s *Store) load(c echo.Context) (*Session, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return s.newSession(), nil
	}
	id, ok := s.verify(cookie.Value)
	if !ok {
		return s.newSession(), nil
	}

	raw, err := s.client.Get(c.Request().Context(), keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.newSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	sess := &Session{ID: id}
	if err := json.Unmarshal(raw, &sess.Data); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return sess, nil
}

// Save persists the session and refreshes the cookie.
func (s *Store) Save(c echo.Context, sess *Session) error {
	raw, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(c.Request().Context(), keyPrefix+sess.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	sess.isNew = false
	c.SetCookie(s.cookie(s.sign(sess.ID), s.ttl))
	return nil
}

// Regenerate moves the session's data to a new id, discarding the old one.
func (s *Store) Regenerate(c echo.Context, sess *Session) error {
	if !sess.isNew {
		if err := s.client.Del(c.Request().Context(), keyPrefix+sess.ID).Err(); err != nil {
			return fmt.Errorf("dropping old session: %w", err)
		}
	}
	sess.ID = uuid.NewString()
	return s.Save(c, sess)
}

func (s *Store) Destroy(c echo.Context, sess *Session) error {
	sess.Data = Data{}
	c.SetCookie(s.cookie("", -1))
	if sess.isNew {
		return nil
	}
	if err := s.client.Del(c.Request().Context(), keyPrefix+sess.ID).Err(); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}

func (s *Store) cookie(value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	} else {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = time.Now().Add(ttl)
	}
	return ck
}

func (s *Store) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Store) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id := value[:i]
	if !hmac.Equal([]byte(s.sign(id)), []byte(value)) {
		return "", false
	}
	return id, true
}

// Ping is used by tests and the health check to confirm Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
