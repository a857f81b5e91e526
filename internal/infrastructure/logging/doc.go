// Package logging provides structured logging on top of uber/zap.
//
// Production builds log JSON; development builds (LOG_DEV=true) log
// colored console lines. Components receive a *Logger, take a Named child
// and attach request-scoped fields:
//
//	log := logger.Named("dispatch")
//	log.Debug("routed", zap.String("action", string(action)))
package logging
