// Package logging provides opt-in file-based logging with rotation for TSBridge.
// When the --debug flag is set, comprehensive logs are written to ~/.tsbridge/logs/
// for debugging and troubleshooting.
//
// Logs never go to stdout: stdout carries the MCP stdio transport, and any
// stray write there corrupts the JSON-RPC stream.
package logging
