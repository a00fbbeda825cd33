// Package logging configures the process-wide structured logger. Logs are
// JSON lines written to a rotating file so stdout stays reserved for
// results; mirroring to stderr is opt-in for debugging.
package logging
