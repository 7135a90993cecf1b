// Package log builds the structured logger of leakwatch on top of log/slog.
//
// Every record passes through SecureHandler, which masks credentials before
// they are written: SMTP passwords, webhook URLs that embed tokens, bearer
// and basic auth values, private key blocks. Masking applies in verbose mode
// too.
//
// Setup creates the process-wide logger once at startup, writing text to the
// console and JSON lines to a log file, and returns a handle whose Close
// must run at shutdown:
//
//	logger, err := log.Setup(log.Options{Verbose: true, File: path})
//	if err != nil {
//		return err
//	}
//	defer logger.Close()
//	monitor := monitor.New(..., monitor.WithLogger(logger.Logger))
package log
