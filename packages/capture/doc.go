// Package capture extracts values from received responses and checks them
// against JSON schemas.
//
// It supports capturing values from:
//   - Response body (gjson paths)
//   - Response headers
//   - Response status code and duration
package capture
