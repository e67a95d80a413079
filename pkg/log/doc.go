/*
Package log provides structured logging for the orchestrator and workflow
packages using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level.

# Usage

Initializing the logger:

	import "github.com/cuemby/russula/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	wf := log.WithComponent("workflow")
	wf.Info().Str("peer", addr.String()).Msg("pairing")

	orch := log.WithComponent("orchestrator").With().Str("run_id", runID).Logger()
	orch.Info().Msg("provisioning complete")

# Context loggers

  - WithComponent: tag logs with the owning package (workflow, orchestrator,
    phase, provision)
  - WithRunID: tag logs with the orchestrator run's unique id
  - WithPeer: tag logs with a workflow instance's peer address
  - WithInstanceID: tag logs with a cloud instance id

# Design

A single package-level Logger is initialized once via Init and never
reinitialized; callers derive component loggers from it rather than
constructing new zerolog.Logger values, keeping level and output
configuration centralized.
*/
package log
