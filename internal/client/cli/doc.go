// Package cli provides the interactive CloudKeeper command-line client.
//
// On start the previous session is restored from the local database and
// revalidated against the server; only then does the REPL accept commands.
// A background watcher can revalidate the session periodically.
//
// Commands: register, login, logout, whoami, admin, refresh, status, help,
// exit. The REPL is started via App.Run(ctx), which blocks until the user
// exits. See App, StartSessionWatcher, and runREPL for details.
package cli
