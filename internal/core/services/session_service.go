package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emaihl-library/internal/config"
	"emaihl-library/internal/pkg/jwt"
	"emaihl-library/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInsecureSecret     = errors.New("SESSION_SECRET must be set to a non-default value in production")
)

// SessionService checks the shared library passphrase and issues session tokens.
// Tokens are stateless; nothing is stored server side.
type SessionService struct {
	passphraseHash string
	cfg            config.SessionConfig
	logger         *zap.Logger
}

// NewSessionService hashes the configured passphrase once at start-up
func NewSessionService(cfg config.SessionConfig, logger *zap.Logger) (*SessionService, error) {
	if !password.ValidatePassphrase(cfg.Passphrase) {
		return nil, fmt.Errorf("LIBRARY_PASSPHRASE must be 4 to 12 digits")
	}
	if cfg.Production && (cfg.Secret == "" || cfg.Secret == config.DefaultSessionSecret) {
		return nil, ErrInsecureSecret
	}

	hash, err := password.Hash(cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passphrase: %w", err)
	}

	return &SessionService{
		passphraseHash: hash,
		cfg:            cfg,
		logger:         logger,
	}, nil
}

// Session is an issued session token
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the passphrase for a session token
func (s *SessionService) Login(ctx context.Context, passphrase string) (*Session, error) {
	if !password.ValidatePassphrase(passphrase) || !password.Verify(passphrase, s.passphraseHash) {
		s.logger.Warn("⚠️ Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := jwt.GenerateSessionToken(sessionID, s.cfg.Secret, s.cfg.TokenMinutes, time.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("🔓 Librarian logged in", zap.String("session_id", sessionID))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks a session token and returns its session ID
func (s *SessionService) ValidateToken(token string) (string, error) {
	claims, err := jwt.ValidateSessionToken(token, s.cfg.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
