// Package logger provides structured logging on top of zerolog.
//
// Components receive a *Logger at construction and tag it with their name:
//
//	log := logger.Get("scheduler")
//	log.Info("segment transcribed", logger.Fields("segment", 3, "provider", "openai"))
package logger
