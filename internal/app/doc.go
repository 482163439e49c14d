// Package app assembles the engine: it boots logging, loads flows, registers
// modules, and exposes the run, serve, and introspection operations every
// entrypoint shares. The CLI and the HTTP API are both thin layers over it.
package app
