package auth

import (
	"github.com/goliatone/go-blogauth/middleware/jwtware"
)

// TokenValidatorFunc adapts a function into a jwtware.TokenValidator.
type TokenValidatorFunc func(tokenString string) (jwtware.AuthClaims, error)

// Validate satisfies the jwtware.TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// NewTokenValidator exposes a TokenService to the extractor middleware
func NewTokenValidator(ts TokenService) jwtware.TokenValidator {
	return TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		claims, err := ts.Validate(tokenString)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}
