// Package client talks to the healthcare API gateway over HTTP JSON: form
// configuration, location lookups, healthcare entities and record
// create/update endpoints.
//
// Every typed client shares one *Client which attaches the bearer token, the
// user headers carried in its claims and a request id, and maps failures to
// *Error values whose messages are ready to show to users.
package client
