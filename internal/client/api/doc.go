// Package api talks to the two remote HTTP APIs the storefront depends on.
//
// # Overview
//
//  1. IdentityClient: JSON-over-HTTP POST calls to the Cognito-style identity
//     API (register, login, verify-email, password reset, profile). Call is
//     the generic request; the named methods are thin wrappers with a fixed
//     path and argument shape. No retries, no caching.
//  2. CatalogClient: GET product listings from the catalog API with a
//     per-attempt timeout and a fixed-count retry on transient failures.
//
// # Error Handling
//
// Transport failures and undecodable bodies match ErrNetwork. A failure
// reported by the API itself is an *APIError carrying the API's message. A
// catalog body of the wrong shape matches ErrInvalidPayload. Named wrappers
// add the operation ("login failed: ...") without hiding these: use errors.Is
// and errors.As.
package api
