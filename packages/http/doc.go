// Package http provides a fluent request builder on top of a session.
//
// A Builder owns one session. Connect binds it to a server, and the
// returned Connection starts request values:
//   - GetRequest, which requires a target
//   - PostRequest, which sends multipart/form-data and requires at least one field
//
// Request values are copied on every setter, so a partially configured
// request can be reused as a template. Send returns a Reader that reads the
// whole response into memory.
package http
