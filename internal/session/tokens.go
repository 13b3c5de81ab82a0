package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
)

const (
	tokenKeyPrefix  = "admin_session:"
	DefaultTokenTTL = 12 * time.Hour
)

// TokenStore keeps the backend bearer token of each admin browser session.
// Get returns ErrUnauthorized when nothing is stored.
type TokenStore interface {
	Save(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisTokenStore persists tokens in Redis with a TTL.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore wraps a connected client.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+sessionID, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set admin session: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", appErrors.ErrUnauthorized
		}
		return "", fmt.Errorf("redis get admin session: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete admin session: %w", err)
	}
	return nil
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is the in-process TokenStore used without Redis.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenStore constructs an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Save(_ context.Context, sessionID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = memoryToken{value: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	entry, ok := s.tokens[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", appErrors.ErrUnauthorized
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.tokens, sessionID)
		s.mu.Unlock()
		return "", appErrors.ErrUnauthorized
	}
	return entry.value, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}

// AdminSessions stores backend tokens for admin browsers.
type AdminSessions struct {
	store  TokenStore
	maxTTL time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewAdminSessions constructs the admin session manager.
func NewAdminSessions(store TokenStore, maxTTL time.Duration) *AdminSessions {
	if maxTTL <= 0 {
		maxTTL = DefaultTokenTTL
	}
	return &AdminSessions{store: store, maxTTL: maxTTL, parser: jwt.NewParser(), now: time.Now}
}

// Login saves token under a new session id and returns the id with the
// session expiry. JWTs whose exp already passed are rejected; the signature
// is not checked since the backend owns the key. Opaque tokens are accepted.
func (a *AdminSessions) Login(ctx context.Context, token string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.maxTTL)
	if exp, ok := a.tokenExpiry(token); ok {
		if !exp.After(now) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
		}
		if exp.Before(expiresAt) {
			expiresAt = exp
		}
	}
	sessionID := uuid.NewString()
	if err := a.store.Save(ctx, sessionID, token, expiresAt.Sub(now)); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store admin session")
	}
	return sessionID, expiresAt, nil
}

// Token resolves the backend token for a session id.
func (a *AdminSessions) Token(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", appErrors.ErrUnauthorized
	}
	token, err := a.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnauthorized) {
			return "", err
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin session")
	}
	return token, nil
}

// Logout forgets a session.
func (a *AdminSessions) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.store.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear admin session")
	}
	return nil
}

func (a *AdminSessions) tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := a.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
