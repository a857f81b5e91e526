package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxLogEntries bounds one log batch.
const MaxLogEntries = 100

// ClientLogEntry is a log line forwarded by a page or the UI layer.
type ClientLogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ClientLogBatch is the body of POST /logs.
type ClientLogBatch struct {
	Source  string           `json:"source"`
	Session string           `json:"session"`
	Entries []ClientLogEntry `json:"entries"`
}

// StreamLogs writes client log batches into the bridge log.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var batch ClientLogBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log request format"})
		return
	}

	if batch.Source != "page" && batch.Source != "ui" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log source"})
		return
	}
	if len(batch.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No log entries provided"})
		return
	}
	if len(batch.Entries) > MaxLogEntries {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Too many log entries"})
		return
	}

	logger := h.logger.Named(batch.Source)
	if batch.Session != "" {
		logger = logger.With(zap.String("session", batch.Session))
	}
	for _, entry := range batch.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+1)
		fields = append(fields, zap.String("client_timestamp", entry.Timestamp))
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug", "verbose":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries_received": len(batch.Entries),
		"timestamp":        time.Now().Unix(),
	})
}
