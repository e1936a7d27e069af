/*
Package log provides structured logging for kuiperdb using zerolog.

A single global Logger is configured once via Init and used from every
layer: pkg/store logs datastore and index lifecycle events and commit
failures, pkg/exec logs collection registration, and pkg/frontend logs
request outcomes.

# Configuration

Init(Config) sets the global level (debug/info/warn/error), chooses JSON
or console output, and defaults to os.Stdout. cmd/kuiperdb wires this to
the --log-level/--log-json flags or a loaded Config's matching fields.

# Context loggers

WithCollection and WithTxID build child loggers carrying one correlation
field apiece:

	log.WithCollection("widgets").Info().Msg("collection created")
	log.WithTxID(tx.ID()).Warn().Err(err).Msg("commit failed")

Plain calls (Info, Debug, Warn, Error, Fatal) go straight to the global
Logger for call sites that have no collection or transaction to tag.
*/
package log
