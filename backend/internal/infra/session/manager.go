/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 13:17:45
 * @FilePath: \pssuai-admin\backend\internal\infra\session\manager.go
 * @LastEditTime: 2025-10-15 13:18:01
 */
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	claimTokenID = "jti"
	claimLoginAt = "login_at"
	claimKind    = "kind"
	kindOperator = "operator_session"
	defaultTTL   = 12 * time.Hour
)

var (
	// ErrInvalidToken covers malformed, badly signed and expired tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevoked means the token was valid but its session was logged out.
	ErrRevoked = errors.New("session revoked")
)

// Operator is the authenticated identity carried by a session.
type Operator struct {
	ID        string    `json:"operator"`
	LoginAt   time.Time `json:"login_at"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Manager signs operator sessions as HS256 JWTs and tracks their ids in a Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

// NewManager builds a manager. A nil store keeps sessions in process memory.
func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

// TTL returns the session lifetime, used for the cookie max age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a session for operatorID and returns the signed token.
func (m *Manager) Issue(ctx context.Context, operatorID string) (string, Operator, error) {
	now := m.now()
	op := Operator{
		ID:        operatorID,
		LoginAt:   now.Truncate(time.Second),
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.MapClaims{
		"sub":        op.ID,
		"iat":        now.Unix(),
		"exp":        op.ExpiresAt.Unix(),
		claimTokenID: op.TokenID,
		claimLoginAt: op.LoginAt.Unix(),
		claimKind:    kindOperator,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Operator{}, fmt.Errorf("sign session: %w", err)
	}

	if err := m.store.Save(ctx, op.ID, op.TokenID, op.ExpiresAt); err != nil {
		return "", Operator{}, fmt.Errorf("save session: %w", err)
	}
	return signed, op, nil
}

// Verify checks the signature, expiry and revocation state of raw.
func (m *Manager) Verify(ctx context.Context, raw string) (Operator, error) {
	if raw == "" {
		return Operator{}, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Operator{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if kind, _ := claims[claimKind].(string); kind != kindOperator {
		return Operator{}, fmt.Errorf("%w: unexpected kind", ErrInvalidToken)
	}
	subject, _ := claims["sub"].(string)
	tokenID, _ := claims[claimTokenID].(string)
	if subject == "" || tokenID == "" {
		return Operator{}, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}

	op := Operator{
		ID:        subject,
		TokenID:   tokenID,
		LoginAt:   unixClaim(claims[claimLoginAt]),
		ExpiresAt: unixClaim(claims["exp"]),
	}

	active, err := m.store.Exists(ctx, op.ID, op.TokenID)
	if err != nil {
		return Operator{}, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return Operator{}, ErrRevoked
	}
	return op, nil
}

// Revoke ends the session so its token stops verifying.
func (m *Manager) Revoke(ctx context.Context, op Operator) error {
	if op.TokenID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, op.ID, op.TokenID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func unixClaim(value any) time.Time {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0)
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(n, 0)
		}
	}
	return time.Time{}
}
