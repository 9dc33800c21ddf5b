package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const metaSessionRevoked = "session_revoked"

// Principal accumulates what the guard has established about the caller.
// Token and Claims come from the token extractor, later steps fill in the
// session and the user id.
type Principal struct {
	Token   string
	Claims  *JWTClaims
	Session *Session
	UserID  uuid.UUID
}

// Verdict is the outcome of a single guard step: either continue with an
// updated principal or reject with a terminal error.
type Verdict struct {
	principal Principal
	err       error
}

// Continue passes p on to the next step
func Continue(p Principal) Verdict {
	return Verdict{principal: p}
}

// Reject stops the pipeline with err
func Reject(err error) Verdict {
	if err == nil {
		err = ErrUnauthenticated
	}
	return Verdict{err: err}
}

// Rejected reports whether the step ended the pipeline
func (v Verdict) Rejected() bool {
	return v.err != nil
}

// Err returns the rejection error
func (v Verdict) Err() error {
	return v.err
}

// Principal returns the principal carried by a continuing verdict
func (v Verdict) Principal() Principal {
	return v.principal
}

// GuardStep inspects the principal and decides whether the request may go on
type GuardStep func(ctx context.Context, p Principal) Verdict

// Guard runs its steps in order and stops at the first rejection.
type Guard struct {
	steps        []GuardStep
	activitySink ActivitySink
	logger       Logger
}

// GuardOption customizes a Guard
type GuardOption func(*Guard)

// WithGuardActivitySink publishes rejections and revocations
func WithGuardActivitySink(sink ActivitySink) GuardOption {
	return func(g *Guard) {
		g.activitySink = normalizeActivitySink(sink)
	}
}

// WithGuardLogger sets the guard logger
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardSteps appends extra steps after the existing ones
func WithGuardSteps(steps ...GuardStep) GuardOption {
	return func(g *Guard) {
		for _, s := range steps {
			if s != nil {
				g.steps = append(g.steps, s)
			}
		}
	}
}

// NewGuard composes the given steps into a guard
func NewGuard(steps []GuardStep, opts ...GuardOption) *Guard {
	g := &Guard{
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
	for _, s := range steps {
		if s != nil {
			g.steps = append(g.steps, s)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// NewSessionGuard returns the standard pipeline: a verified claim, a live
// session for the exact token string, then an active account.
func NewSessionGuard(registry SessionRegistry, users UserStateFinder, opts ...GuardOption) *Guard {
	return NewGuard([]GuardStep{
		RequireClaims(),
		RequireSession(registry),
		RequireActiveAccount(users, registry),
	}, opts...)
}

// Authorize runs the pipeline for p
func (g *Guard) Authorize(ctx context.Context, p Principal) (Principal, error) {
	for _, step := range g.steps {
		verdict := step(ctx, p)
		if verdict.Rejected() {
			g.recordRejection(ctx, p, verdict.Err())
			return Principal{}, verdict.Err()
		}
		p = verdict.Principal()
	}
	return p, nil
}

func (g *Guard) recordRejection(ctx context.Context, p Principal, err error) {
	rich := AsError(err)
	userID := ""
	if p.Claims != nil {
		userID = p.Claims.UserID()
	}

	g.logger.Debug("guard rejected request", "user_id", userID, "code", rich.TextCode, "error", err)
	RecordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventGuardRejected,
		Actor:     ActorRef{ID: userID, Type: "user"},
		UserID:    userID,
		Metadata:  map[string]any{"code": rich.TextCode},
	})

	if revoked, _ := rich.Metadata[metaSessionRevoked].(bool); revoked {
		RecordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
			EventType: ActivityEventSessionRevoked,
			Actor:     ActorRef{ID: "guard", Type: "system"},
			UserID:    userID,
			Metadata: map[string]any{
				"reason":     rich.TextCode,
				"session_id": rich.Metadata["session_id"],
			},
		})
	}
}

// RequireClaims rejects requests without a verified identity claim
func RequireClaims() GuardStep {
	return func(_ context.Context, p Principal) Verdict {
		if p.Claims == nil || p.Token == "" {
			return Reject(ErrUnauthenticated)
		}
		id, err := p.Claims.UserUUID()
		if err != nil || id == uuid.Nil {
			return Reject(ErrUnauthenticated.WithMessage("token subject is not a user id"))
		}
		p.UserID = id
		return Continue(p)
	}
}

// RequireSession rejects tokens without a session row. Lookup is by the
// raw token string, so a logged out token fails here even while its
// signature and expiry are still valid.
func RequireSession(registry SessionRegistry) GuardStep {
	return func(ctx context.Context, p Principal) Verdict {
		session, err := registry.FindByToken(ctx, p.Token)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return Reject(ErrSessionInvalid)
			}
			return Reject(err)
		}
		if session.UserID != p.UserID {
			return Reject(ErrSessionInvalid.WithMetadata(map[string]any{"reason": "session bound to another user"}))
		}
		p.Session = session
		return Continue(p)
	}
}

// RequireActiveAccount rejects users that no longer exist or are disabled.
// Either way the session is deleted before rejecting, so the next request
// with the same token fails at RequireSession.
func RequireActiveAccount(users UserStateFinder, registry SessionRegistry) GuardStep {
	return func(ctx context.Context, p Principal) Verdict {
		state, err := users.GetState(ctx, p.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
			return revokeAndReject(ctx, registry, p, ErrUserNotFound)
		case err != nil:
			return Reject(err)
		case state.Disabled:
			return revokeAndReject(ctx, registry, p, ErrAccountDisabled)
		}
		return Continue(p)
	}
}

func revokeAndReject(ctx context.Context, registry SessionRegistry, p Principal, reason *Error) Verdict {
	if p.Session == nil {
		return Reject(reason)
	}
	if err := registry.DeleteByID(ctx, p.Session.ID); err != nil {
		return Reject(err)
	}
	return Reject(reason.WithMetadata(map[string]any{
		metaSessionRevoked: true,
		"session_id":       p.Session.ID.String(),
	}))
}
