// Package cli provides the interactive sitepins operator console.
//
// It builds the same tracker stack as the server (local store, optional
// remote mirror, start-up reconciliation) and runs a REPL on top of it:
//
//   - list / resolved / history / groups to inspect points
//   - add / comment / group / resolve to change them
//   - export / import to move the whole state between installations
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See runREPL for the command table.
package cli
