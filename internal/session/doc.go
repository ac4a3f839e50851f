// Package session holds the browser-held credential record and the access token lifecycle.
//
// Credentials never live in process memory across requests: every request reads them from a
// [CredentialStore] (cookies in the server, a map in the CLI) and writes refreshed values back.
package session
