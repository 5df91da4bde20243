// Package service provides the interface and peer operations shared by the
// API and the CLI.
//
// Input is validated before any lock is taken. Mutations of one interface
// run under the exclusive lock of its canonical file and re-sync the
// canonical file inside the same critical section; a failed re-sync does
// not undo the mutation and is reported in the result as sync_error.
// Creating and deleting interfaces additionally holds the manager-wide
// lock, always acquired before the interface lock.
package service
