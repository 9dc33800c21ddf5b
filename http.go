package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-blogauth/middleware/jwtware"
)

// UserIDLocalsKey is where Protected stores the authenticated user id
const UserIDLocalsKey = "user_id"

// RouteAuthenticator builds the fiber handlers that put the token
// extractor and the guard in front of routes.
type RouteAuthenticator struct {
	cfg            Config
	guard          *Guard
	tokenValidator jwtware.TokenValidator
	listeners      []ValidationListener
	Logger         Logger
}

// NewHTTPAuthenticator returns a RouteAuthenticator. The guard is composed
// once here and shared by every protected route.
func NewHTTPAuthenticator(cfg Config, tokens TokenService, guard *Guard) *RouteAuthenticator {
	return &RouteAuthenticator{
		cfg:            cfg,
		guard:          guard,
		tokenValidator: NewTokenValidator(tokens),
		Logger:         defLogger{},
	}
}

func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	a.Logger = normalizeLogger(l)
	return a
}

// WithValidationListeners runs listeners on every verified token before the
// extractor attaches it. A listener error leaves the request anonymous.
func (a *RouteAuthenticator) WithValidationListeners(listeners ...ValidationListener) *RouteAuthenticator {
	a.listeners = append(a.listeners, listeners...)
	return a
}

func (a *RouteAuthenticator) contextKey() string {
	if key := a.cfg.GetContextKey(); key != "" {
		return key
	}
	return "user"
}

// Extractor returns the non-aborting token extractor. Mount it on every
// route, it only annotates the request.
func (a *RouteAuthenticator) Extractor() fiber.Handler {
	cfg := jwtware.Config{
		ContextKey:      a.contextKey(),
		TokenContextKey: tokenLocalsKey,
		TokenLookup:     a.cfg.GetTokenLookup(),
		AuthScheme:      a.cfg.GetAuthScheme(),
		TokenValidator:  a.tokenValidator,
		Logger:          a.Logger,
		ContextEnricher: ContextEnricherAdapter,
	}
	RegisterValidationListeners(&cfg, a.listeners...)
	return jwtware.New(cfg)
}

// Protected runs the guard pipeline. Rejections are returned to fiber's
// error handler, success attaches the user id to locals and to the user
// context.
func (a *RouteAuthenticator) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := a.guard.Authorize(c.UserContext(), a.principal(c))
		if err != nil {
			return err
		}

		c.Locals(UserIDLocalsKey, principal.UserID)
		ctx := WithClaimsContext(c.UserContext(), principal.Claims)
		c.SetUserContext(WithUserID(ctx, principal.UserID))
		return c.Next()
	}
}

// RequireToken only demands a verified claim, without a session lookup.
// Logout uses it so a token without a session can be reported as such.
func (a *RouteAuthenticator) RequireToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := a.principal(c)
		if p.Claims == nil || p.Token == "" {
			return ErrUnauthenticated
		}
		c.SetUserContext(WithClaimsContext(c.UserContext(), p.Claims))
		return c.Next()
	}
}

func (a *RouteAuthenticator) principal(c *fiber.Ctx) Principal {
	claims, _ := c.Locals(a.contextKey()).(*JWTClaims)
	token, _ := c.Locals(tokenLocalsKey).(string)
	return Principal{Token: token, Claims: claims}
}

// Claims returns the verified claims and raw token set by Extractor
func (a *RouteAuthenticator) Claims(c *fiber.Ctx) (*JWTClaims, string, bool) {
	p := a.principal(c)
	return p.Claims, p.Token, p.Claims != nil && p.Token != ""
}

// CurrentUserID returns the id stored by Protected
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(UserIDLocalsKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

const tokenLocalsKey = "token"
