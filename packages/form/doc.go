// Package form encodes named fields into a multipart/form-data body.
//
// Three kinds of field are supported:
//   - Text fields, sent verbatim
//   - File fields, read whole from disk when the body is encoded
//   - Blob fields, already loaded bytes with a MIME type and filename
//
// Every body gets its own boundary derived from a random UUID.
package form
