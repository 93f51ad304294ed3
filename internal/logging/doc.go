// Package logging provides structured logging for drawbridge runs.
//
// This package wraps Go's log/slog. Logs are JSON by default, which keeps a
// run's log greppable next to the recorded event trace; a text format is
// available for interactive use.
//
// # Basic Usage
//
//	logger, err := logging.NewFileLogger("/tmp/drawbridge.log", "DEBUG", logging.FormatJSON)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("simulation started", "cars", 19, "ships", 4)
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	carLog := logger.WithComponent("sim").WithActor("car", 3)
//	carLog.Debug("crossing")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"crossing","component":"sim","species":"car","actor_id":3}
//
// # Testing
//
// Use [NopLogger] to discard output, or [New] with a bytes.Buffer to assert
// on it.
package logging
