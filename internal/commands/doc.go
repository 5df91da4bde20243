// Package commands implements the wgfold command line.
//
// Every subcommand loads and validates the TOML config, then builds a
// service.Manager over the real wg tooling. The serve command exposes the
// same manager over HTTP.
package commands
