// Package updater tells users when a newer release of the CLI is published.
// The registry is asked at most once per day; the answer is kept in
// version-check.json in the CLI home and turned into a banner on every run.
// Nothing here ever fails a command.
package updater
