// Package auth issues and verifies the signed session tokens carried in
// the HttpOnly session cookie, and hashes user passwords.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hearth/internal/core"
)

var (
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the verified identity extracted from a session cookie.
type Session struct {
	UserID   int64
	Email    string
	FamilyID int64
	Role     core.Role
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
}

func NewManager(secret string, ttl time.Duration, cookieName string) *Manager {
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.cookieName }

// IssueToken builds a signed HS256 token for the user.
func (m *Manager) IssueToken(user core.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":    user.ID,
		"email":  user.Email,
		"family": user.FamilyID,
		"role":   string(user.Role),
		"iat":    now.Unix(),
		"exp":    now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token string.
func (m *Manager) VerifyToken(tokenStr string) (Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	sess := Session{}
	if sub, ok := claims["sub"].(float64); ok {
		sess.UserID = int64(sub)
	}
	if email, ok := claims["email"].(string); ok {
		sess.Email = email
	}
	if family, ok := claims["family"].(float64); ok {
		sess.FamilyID = int64(family)
	}
	if role, ok := claims["role"].(string); ok {
		sess.Role = core.Role(role)
	}
	if sess.UserID == 0 {
		return Session{}, ErrInvalidToken
	}
	return sess, nil
}

// SessionCookie builds the HttpOnly cookie carrying a signed token.
func (m *Manager) SessionCookie(token string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired cookie that removes the session.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest extracts and verifies the session from the request cookie.
func (m *Manager) FromRequest(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	return m.VerifyToken(cookie.Value)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password too short (min 8 characters)")
	}
	// bcrypt operates on at most 72 bytes
	if len(password) > 72 {
		return "", errors.New("password too long (max 72 characters)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
