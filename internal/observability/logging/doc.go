// Package logging builds the process logger and carries request-scoped
// loggers through context.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logging.WithRequestID(ctx, slog.Default()).Info("processing request")
//	}
//
// digestctl uses NewLoggerTo(os.Stderr) so that stdout carries only
// command output.
package logging
