// Package auth implements the admin control surface's auth substrate:
// password policy enforcement, bcrypt hashing, signed access/refresh
// token issuance with refresh rotation, and audit log append.
//
// Tokens are opaque bearer strings: a base64url JSON claims payload
// followed by a hex HMAC-SHA256 signature, separated by a dot. Access
// tokens carry {user id, email, role} and expire in 15 minutes by
// default; refresh tokens carry {user id, token id} and expire in 7
// days. TokenIssuer tracks the single currently-valid refresh token ID
// per user in memory, so using a token once it has been rotated out
// always fails even if its signature and expiry are still valid.
//
// Login appends an audit entry on success and on failure;
// ChangePassword and ResetPassword append one on success, and Refresh
// appends none. Auditor redacts password/token fields from the detail map
// before it reaches storage, and a failure to persist an audit entry
// never blocks the action it describes.
package auth
