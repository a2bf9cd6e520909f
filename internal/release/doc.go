// Package release fetches the latest release metadata from the versions
// endpoint.
//
// Responses are validated against an embedded JSON Schema before decoding,
// so a body missing any required field never turns into a half-filled
// Metadata value.
package release
