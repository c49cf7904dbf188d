// Package session loads the signed-in user from persisted storage and
// carries it as an explicit value.
//
// The web client read the "user" key from browser storage wherever it needed
// a token. Here the user is loaded once at start-up into a Context, which is
// then passed to whatever needs the credential.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wilhg/persephone/pkg/model"
)

// UserKey is the storage key holding the JSON-encoded user object.
const UserKey = "user"

// ErrNotFound is returned by Storage.Get for a missing key.
var ErrNotFound = errors.New("session: key not found")

// Token check failures.
var (
	ErrNoToken      = errors.New("session: no token")
	ErrTokenExpired = errors.New("session: token expired")
)

// Storage is the persisted key-value store behind a session.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Context is the credential context of one reader.
type Context struct {
	User  model.User
	Token string
}

// Anonymous reports whether no user is signed in.
func (c Context) Anonymous() bool { return c.Token == "" }

// Authenticated reports whether the token is usable at now.
func (c Context) Authenticated(now time.Time) bool {
	return CheckToken(c.Token, now) == nil
}

// Load reads the persisted user. A missing key yields an anonymous context.
func Load(ctx context.Context, st Storage) (Context, error) {
	b, err := st.Get(ctx, UserKey)
	if errors.Is(err, ErrNotFound) {
		return Context{}, nil
	}
	if err != nil {
		return Context{}, fmt.Errorf("read %s: %w", UserKey, err)
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		return Context{}, fmt.Errorf("decode %s: %w", UserKey, err)
	}
	return Context{User: u, Token: u.Token}, nil
}

// Save persists u as the signed-in user and returns its context.
func Save(ctx context.Context, st Storage, u model.User) (Context, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return Context{}, fmt.Errorf("encode %s: %w", UserKey, err)
	}
	if err := st.Set(ctx, UserKey, b); err != nil {
		return Context{}, fmt.Errorf("write %s: %w", UserKey, err)
	}
	return Context{User: u, Token: u.Token}, nil
}

// Clear removes the persisted user. Clearing an absent user is not an error.
func Clear(ctx context.Context, st Storage) error {
	if err := st.Delete(ctx, UserKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete %s: %w", UserKey, err)
	}
	return nil
}

// CheckToken decides whether token can be sent. The signature is not verified
// here; the backend stays the authority. Opaque tokens pass, JWTs fail once
// their exp claim is in the past.
func CheckToken(token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !now.Before(exp.Time) {
		return ErrTokenExpired
	}
	return nil
}

// Memory is an in-process Storage.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
