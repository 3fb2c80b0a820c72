// Package session owns the bearer token: one string persisted under a fixed
// path, read once at startup, written on login, removed on logout. All
// network-issuing components read the token through this manager; nothing
// else writes it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rollcall/internal/apiclient"
)

// ErrMissingCredentials is returned by Login before any network call when the
// student ID or password is empty.
var ErrMissingCredentials = errors.New("please enter both student ID and password")

// Manager loads, persists and exposes the auth token.
type Manager struct {
	path string

	mu    sync.RWMutex
	token string
}

// Open reads any persisted token from path. A token that parses as a JWT with
// an expiry in the past is treated as absent so the caller requires a fresh
// login; opaque tokens pass through untouched. A missing or unreadable file
// simply yields an unauthenticated manager.
func Open(path string) *Manager {
	m := &Manager{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	token := strings.TrimSpace(string(raw))
	if expired(token) {
		return m
	}
	m.token = token
	return m
}

// Token returns the current bearer token, empty when unauthenticated.
// Implements apiclient.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a token is loaded.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

// Login authenticates against the remote API and persists the returned token.
// The file write completes before Login returns success, so a caller may
// proceed to authorized screens immediately afterwards.
func (m *Manager) Login(ctx context.Context, client *apiclient.Client, studentID, password string) error {
	if strings.TrimSpace(studentID) == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}

	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"studentId": studentID, "password": password}
	if err := client.Post(ctx, "auth/login", body, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("token missing from response")
	}

	if err := m.persist(resp.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	m.mu.Lock()
	m.token = resp.Token
	m.mu.Unlock()
	return nil
}

// Logout removes the persisted token and drops the in-memory copy.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// persist writes the token and syncs before returning, so the acknowledgment
// is durable rather than sitting in the page cache.
func (m *Manager) persist(token string) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(token); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// expired reports whether token is a JWT whose exp claim has passed. Tokens
// that do not parse as JWTs are never considered expired here.
func expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
