// Package log provides simple leveled logging for wgfold.
//
// Levels are DEBUG, INFO, WARN and ERROR. Messages below the configured
// level are dropped; ERROR goes to stderr, everything else to stdout.
//
//	log.SetLevel("debug")
//	log.Infof("[sync] wrote %s", path)
//	log.Warnf("Could not set permissions on %s: %v", path, err)
//
// The package uses global state guarded by a mutex so it can be called
// from every request goroutine.
package log
