// Package config defines the configuration surface for arcache.
//
// Configuration flows from three places, in increasing precedence:
// built-in defaults, a YAML configuration file (.arcache in the current
// or home directory), and CLI flags. The result is a single flat Config
// struct passed through the application via dependency injection rather
// than global state.
//
// Validation happens once, after CLI parsing and before any job starts.
// A validation failure is the only error class that aborts a whole batch
// rather than isolating to a single job.
package config
