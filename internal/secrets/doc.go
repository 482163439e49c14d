// Package secrets resolves the opaque credentials a flow declares and keeps
// them out of logs.
//
// A flow's secrets list names the keys it requires. Resolution walks an
// ordered provider chain, by default the process environment followed by an
// optional .env file, and fails with a single error naming every key that is
// missing or empty. The resolved bundle travels on the context so runners
// can expand secret references and mask captured output.
//
// The package never interprets secret values. A key's value is an opaque
// string handed to the steps that asked for it.
package secrets
