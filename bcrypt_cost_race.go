//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds run the hashing tests several times slower, min cost keeps
// login and registration tests inside their timeouts
func passwordHashCost() int {
	return bcrypt.MinCost
}
