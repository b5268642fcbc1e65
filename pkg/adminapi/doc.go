// Package adminapi is the Admin Control Surface (C8): thin HTTP
// handlers mapping 1:1 onto the C1-C7 contracts, behind a chi router.
// Every route requires a valid access token except /health, /ready,
// /metrics and the login/refresh/password-requirements trio; every
// token-checked route except /auth/change-password enforces a
// permission drawn from the caller's role or explicit permission set;
// every mutating route behind the token check appends an audit entry
// on success.
package adminapi
