// Package logging provides structured logging for budsctl.
//
// This package wraps a package-global zap logger with convenience functions
// for the logging patterns used by the connection manager, the handlers,
// and the front-ends.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Packet dumps, unclaimed commands, decoder resyncs
//   - Info: State changes, profile selection, informational packets
//   - Warn: Handler faults, connection drops, retries
//   - Error: Startup failures
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Profile matched",
//	    zap.String("name", "HUAWEI FreeBuds Pro 3"),
//	    zap.String("address", "AA:BB:CC:DD:EE:FF"),
//	)
//
// # Specialized Logging
//
//	logging.LogPacket("rx", pkt.ID.String(), pkt.String(), frame)
//	logging.LogStateChange(addr, "connecting", "connected")
//	logging.LogRawBytes("handshake reply", data)
//
// # Configuration
//
// Logging is silent until initialized. The CLI calls Initialize with the
// --log-level flag or config value, falling back to BUDSCTL_LOG_LEVEL:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so that command output on
// stdout stays machine readable.
package logging
