package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoginResult is returned to the client after a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	SessionID uuid.UUID `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

type statusIdentity interface {
	Status() UserStatus
}

// Auther ties credential verification, token issuance and the session
// registry together.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	sessions     SessionRegistry
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService, sessions SessionRegistry) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		sessions:     sessions,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials, issues a token and persists its session.
// The token is only returned once the session row exists.
func (s *Auther) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrValidation.WithMessage("username and password are required")
	}

	identity, err := s.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		s.logger.Info("login verify identity error", "username", username, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": username,
			"code":       AsError(err).TextCode,
		})
		return nil, err
	}

	if si, ok := identity.(statusIdentity); ok && si.Status() == UserStatusDisabled {
		s.logger.Warn("login blocked due to user status", "user_id", identity.ID())
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": username,
			"code":       ErrAccountDisabled.TextCode,
		})
		return nil, ErrAccountDisabled
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, ErrInternal.WithMessage("identity id is not a uuid").Wrap(err)
	}

	token, claims, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("login failed to generate token", "user_id", identity.ID(), "error", err)
		return nil, err
	}

	sessionID, err := s.sessions.Create(ctx, userID, token)
	if err != nil {
		s.logger.Error("login failed to persist session", "user_id", identity.ID(), "error", err)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromIdentity(identity), identity.ID(), map[string]any{
		"session_id": sessionID.String(),
	})

	return &LoginResult{
		Token:     token,
		Username:  identity.Username(),
		Name:      identity.Name(),
		SessionID: sessionID,
		ExpiresAt: claims.Expires(),
	}, nil
}

// Logout deletes the session for token. A token without a session is
// reported as ErrSessionNotFound.
func (s *Auther) Logout(ctx context.Context, claims *JWTClaims, token string) error {
	if claims == nil || token == "" {
		return ErrUnauthenticated
	}

	n, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: claims.UserID(), Type: "user"}, claims.UserID(), nil)
	return nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	RecordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	})
}

func actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{ID: identity.ID(), Type: "user"}
}

// IsAuthError reports whether err should be answered with 401 or 403
func IsAuthError(err error) bool {
	var rich *Error
	if !errors.As(err, &rich) {
		return false
	}
	switch rich.Category {
	case CategoryUnauthenticated, CategorySessionInvalid, CategoryAccountDisabled, CategoryForbidden:
		return true
	}
	return false
}
