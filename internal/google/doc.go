// Package google manages OAuth2 credentials for the Google capability
// families. Each family (Gmail, Calendar) has its own scopes and its own
// persisted token; tokens are never shared across families.
//
// The credential lifecycle is load, validate, refresh-in-place when expired
// with a refresh token, interactive grant otherwise, then persist. The
// read-refresh-write cycle is guarded by a per-family lock so concurrent
// runs cannot refresh the same token and overwrite each other's result.
package google
