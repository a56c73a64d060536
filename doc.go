// Package auth provides the authentication core for the rutina backend:
// password and Google OAuth identities, JWT issuance and validation, bun
// backed user storage with login throttling, and idempotent admin
// provisioning. The HTTP surface lives in the server package.
package auth
