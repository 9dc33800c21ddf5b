package auth

import (
	"context"
	"net/http"
	"time"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = newError(CategoryValidation, http.StatusBadRequest, "INVALID_USER_STATE_TRANSITION", "invalid user state transition")

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor  ActorRef
	User   *User
	From   UserStatus
	To     UserStatus
	Reason string
}

// TransitionHook is executed after a transition is persisted.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reason         string
	revokeSessions bool
	afterHooks     []TransitionHook
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithSessionRevocation deletes every session of the user when it is
// disabled, instead of waiting for the guard to revoke them one by one.
func WithSessionRevocation() TransitionOption {
	return func(opts *transitionOptions) {
		opts.revokeSessions = true
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// UserStateMachine is the administrative path for the disabled flag.
type UserStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error)
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*userStateMachine)

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *userStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *userStateMachine) {
		sm.logger = normalizeLogger(logger)
	}
}

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *userStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

type userStateMachine struct {
	users        Users
	sessions     SessionRegistry
	transitions  map[UserStatus]map[UserStatus]struct{}
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// NewUserStateMachine returns the default implementation backed by the provided repositories.
func NewUserStateMachine(users Users, sessions SessionRegistry, opts ...StateMachineOption) UserStateMachine {
	sm := &userStateMachine{
		users:    users,
		sessions: sessions,
		transitions: map[UserStatus]map[UserStatus]struct{}{
			UserStatusActive:   {UserStatusDisabled: {}},
			UserStatusDisabled: {UserStatusActive: {}},
		},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}
	return sm
}

func (sm *userStateMachine) Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{"reason": "user is nil"})
	}

	from := user.Status()
	if from == target {
		return user, nil
	}
	if _, ok := sm.transitions[from][target]; !ok {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{"from": from, "to": target})
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	updated, err := sm.users.SetDisabled(ctx, user.ID, target == UserStatusDisabled)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if options.reason != "" {
		metadata["reason"] = options.reason
	}

	if target == UserStatusDisabled && options.revokeSessions && sm.sessions != nil {
		n, err := sm.sessions.DeleteByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		metadata["sessions_revoked"] = n
	}

	tc := TransitionContext{Actor: actor, User: updated, From: from, To: target, Reason: options.reason}
	for _, hook := range options.afterHooks {
		if err := hook(ctx, tc); err != nil {
			return nil, err
		}
	}

	RecordActivity(ctx, sm.activitySink, sm.logger, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      actor,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   metadata,
		OccurredAt: sm.now().UTC(),
	})

	return updated, nil
}
