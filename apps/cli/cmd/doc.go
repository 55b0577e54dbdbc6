// Package cmd implements the hitclient CLI commands using Cobra.
//
// Available commands:
//   - get: Send a GET request and print the response
//   - post: Send a multipart/form-data POST request
//   - serve: Run the stub server
//   - stress: Drive sustained load against a path
//   - history: Show or query the recorded exchanges
//   - init: Write a starter config and routes file
//   - version: Show hitclient version information
//
// Settings come from defaults, then the config file, then .env variables
// and finally command line flags.
package cmd
