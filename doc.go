// Package auth implements account signup and signin for the charchat
// service: bcrypt password hashing, HS256 session tokens and a go-router
// controller exposing the flows over HTTP.
//
// Sessions are stateless. A token carries the account id, username and
// email and is trusted only while its signature verifies and it has not
// expired. Signout adds the token id to a deny-list that protected routes
// consult through RevocationValidator; entries are purged once the token
// would have expired anyway.
//
// Signin failures for unknown identifiers and wrong passwords share one
// error value, ErrInvalidCredentials, and cost the same bcrypt work.
//
// Errors are go-errors values carrying a category, a text code and an HTTP
// status; AsError normalizes anything else to an internal error.
//
// Storage goes through bun and go-repository-bun. SQLite is the default; postgres:// DSNs use
// pgx. Migrations are embedded and applied with goose by Migrate.
package auth
