// Package auth provides the authentication core of the blog service: bcrypt
// credential verification, JWT issuance, a durable session registry and the
// guard that gates protected routes.
//
// Sessions:
//   - A token is honored only while a session row exists for its exact
//     string. Logout deletes the row, so a logged out token is rejected even
//     though its signature and expiry are still valid.
//   - SessionRegistry has a bun implementation over the sessions table and a
//     Redis implementation for deployments that keep sessions out of SQL.
//
// Guard:
//   - Guard is an ordered list of GuardStep functions. Each step returns a
//     Verdict that either continues with an enriched Principal or rejects.
//     NewSessionGuard composes claims, session and account status checks.
//   - A disabled account has its session deleted before the 403 is returned,
//     so the next request with the same token gets 401.
//
// Users:
//   - Users exposes explicit projections. PublicUser has no password hash
//     field, GetWithSecret is the only read that loads one.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the guard
//     and the state machine. Sinks run best-effort (errors are logged).
package auth
