// Package vault provides a Go SDK for the File Vault auth and file services.
//
// The SDK owns the client side of a session: it stores the bearer
// credential, decodes its claims for routing decisions, sends every request
// through a single gateway that clears the credential on a 401, and encodes
// batched multipart uploads.
package vault
