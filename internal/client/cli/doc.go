// Package cli provides the interactive ministry command-line client.
//
// It wires configuration, the API client, the in-memory session store and
// an interactive REPL. The "dashboard" command is the protected view: it runs
// the session bootstrapper, which verifies the cached session, refreshes it
// once if needed, or evicts it and sends the user back to login.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
