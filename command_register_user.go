package auth

import (
	"context"
	"strings"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation"
)

// MinPasswordLength is the shortest accepted password
var MinPasswordLength = 3

// EmailFormat checks the shape of a username. It never resolves the domain.
var EmailFormat = validation.NewStringRule(govalidator.IsEmail, "must be a valid email address")

// RegisterUserMessage is the registration payload
type RegisterUserMessage struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the payload shape. Usernames are email addresses.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Username, validation.Required, EmailFormat),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 0)),
	)
}

// RegisterUserHandler creates accounts
type RegisterUserHandler struct {
	users        Users
	passwords    PasswordAuthenticator
	logger       Logger
	activitySink ActivitySink
}

// NewRegisterUserHandler returns a handler writing to users
func NewRegisterUserHandler(users Users) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:        users,
		passwords:    NewPasswordAuthenticator(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) WithPasswordAuthenticator(p PasswordAuthenticator) *RegisterUserHandler {
	if p != nil {
		h.passwords = p
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*PublicUser, error) {
	select {
	case <-ctx.Done():
		return nil, ErrInternal.WithMessage("context cancelled during user registration").Wrap(ctx.Err())
	default:
	}

	event.Name = strings.TrimSpace(event.Name)
	event.Username = strings.TrimSpace(event.Username)
	if err := event.Validate(); err != nil {
		return nil, ValidationError(err)
	}

	hash, err := h.passwords.HashPassword(event.Password)
	if err != nil {
		return nil, ErrInternal.WithMessage("failed to hash password").Wrap(err)
	}

	user, err := h.users.Register(ctx, &User{
		Name:         event.Name,
		Username:     event.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("user registered", "user_id", user.ID.String())
	RecordActivity(ctx, h.activitySink, h.logger, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})
	return user, nil
}
