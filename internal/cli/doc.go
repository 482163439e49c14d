// Package cli defines the flowgrid command tree. It translates flags and
// FLOWGRID_* environment variables into the application's configuration and
// handles process-level concerns like exit codes.
package cli
