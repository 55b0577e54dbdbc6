// Package output renders request/response exchanges for the command line.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Each formatter implements the Formatter interface. The JSON formatter
// accumulates exchanges and writes them on Flush.
package output
