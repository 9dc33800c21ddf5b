package auth

import (
	"context"

	"github.com/goliatone/go-blogauth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so callers do not need
// to import the middleware package.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores verified claims in the standard context so
// services below the handler can read them with GetClaims.
func ContextEnricherAdapter(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	jc, ok := claims.(*JWTClaims)
	if !ok || jc == nil {
		return ctx
	}
	return WithClaimsContext(ctx, jc)
}

// RegisterValidationListeners appends listeners to cfg
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
