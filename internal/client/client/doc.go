// Package client is the single request pipeline every call to the storage
// backend goes through.
//
// # Overview
//
//  1. Client is the endpoint contract of the auth API: CSRF issuance, login,
//     token exchange and refresh, registration, identity lookup and logout.
//  2. HTTPClient implements it over net/http. It is configured once with the
//     base URL, an optional cookie jar and exactly one RequestHook, which
//     injects whatever credential the active strategy needs. The hook runs
//     once per request, immediately before dispatch.
//  3. Every request gets an X-Request-ID, can be throttled with a token
//     bucket, and can be counted by Prometheus collectors (see Metrics).
//
// # Error Handling
//
// The pipeline never retries. Transport failures are returned wrapped with
// ErrUnavailable; non-2xx responses become *APIError, which matches
// ErrUnauthorized (401) and ErrForbidden (403) with errors.Is.
package client
