// Package solscan is the HTTP client for the Solscan Pro v2 REST API.
//
// # Call model
//
// Client.Get issues exactly one GET per call. There are no retries and no
// connection-level backoff: the caller decides what a failure means. Every
// call runs under a deadline, either the caller's timeout or the configured
// default, and the outcome comes back as a Result rather than an error.
//
// # Result classification
//
// Result.Status separates the failure modes the tool layer renders
// differently: a deadline hit (StatusTimeout), a connection-level failure
// (StatusNetworkError), a non-2xx answer (StatusHTTPError), and a 2xx answer
// whose body is not valid JSON (StatusMalformedBody). Non-JSON bodies are
// preserved for diagnostics as {"raw": text} so the Result body is always
// valid JSON.
//
// # Prefix guard
//
// Endpoints are restricted by their first path segment. A request whose
// head is not in the allowed set is answered locally with a synthetic 400
// and never leaves the process.
package solscan
