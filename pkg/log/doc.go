/*
Package log provides structured logging for edgefunc using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all edgefunc packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithTenant: Add tenant ID context

# Usage

	import "github.com/cuemby/edgefunc/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("edgefuncd starting")

	workerLog := log.WithComponent("worker")
	workerLog.Info().Msg("spawning isolate")

	tenantLog := log.WithTenant("acme-corp")
	tenantLog.Warn().Msg("worker queue near capacity")

# Integration Points

This package integrates with:

  - pkg/app: Logs runtime slot transitions
  - pkg/worker: Logs isolate lifecycle and request handling
  - pkg/deploy: Logs deployment loading and reconciliation
  - pkg/router: Logs request routing and dispatch errors
  - pkg/store: Logs storage errors
  - cmd/edgefuncd: Logs process startup and shutdown

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces

Don't:
  - Log KV values or deployment secrets
  - Use Debug level in production
  - Concatenate strings (use .Str, .Int)
*/
package log
