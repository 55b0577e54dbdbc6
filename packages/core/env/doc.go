// Package env handles environment files and variable resolution for hitclient.
//
// It provides functionality for:
//   - Loading environment files (.env, .env.local)
//   - Variable interpolation using {{variable}}, {{$ENV}} and ${ENV} syntax
//   - Built-in function evaluation (uuid, timestamp, random, etc.)
package env
