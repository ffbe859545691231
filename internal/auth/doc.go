// Package auth hashes the credentials stored on a user row.
//
// Passwords are hashed with bcrypt. API tokens are opaque random strings;
// only their SHA-256 digest is stored, so the plaintext is shown to the
// user once, when the account is created.
//
// Verifying requests against these credentials belongs to the API layer.
//
// # Configuration
//
//	AUTH_BCRYPT_COST=12   # bcrypt cost factor
package auth
