// Package app provides the orchestration layer for the atlas CLI.
//
// # Overview
//
// Run resolves the config path, sets up logging, builds an atlas.Executor and
// atlas.Client, dispatches one subcommand, and prints its result as indented
// JSON on stdout. Logs, notices and the login prompt go to stderr so stdout
// stays machine readable.
//
// # Components
//
//   - app.go: Run, executor wiring and credential provider selection
//   - commands.go: subcommand table and per-command flag parsing
//   - output.go: JSON rendering of responses and batch results
//
// # Token Refresh
//
// When the server reports an expired token the executor asks for a new one:
//
//  1. $ATLAS_API_USERNAME and $ATLAS_API_PASSWORD, when both are set
//  2. Otherwise the terminal login form, themed from prefs.toml; the theme
//     picked there and the username are saved back after a login
//
// # Error Handling
//
// Command line mistakes wrap ErrUsage. Everything else is the atlas error
// returned by the call, prefixed with the command name.
package app
