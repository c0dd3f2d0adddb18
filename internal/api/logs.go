//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/logger"
)

// LogsProvider provides access to log data.
type LogsProvider interface {
	GetRecentLogs() []logger.LogEntry
	GetLogFilePath() string
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
}

// NewLogsHandlers creates a new logs handlers instance.
func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries from the ring buffer.
// GET /api/v1/system/logs?level=warn&component=gateway&limit=100
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	logs := h.provider.GetRecentLogs()

	level := strings.ToLower(c.QueryParam("level"))
	component := c.QueryParam("component")
	filtered := make([]logger.LogEntry, 0, len(logs))
	for _, entry := range logs {
		if level != "" && entry.Level != level {
			continue
		}
		if component != "" && entry.Component != component {
			continue
		}
		filtered = append(filtered, entry)
	}

	// Newest entries win when a limit is given.
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 && limit < len(filtered) {
		filtered = filtered[len(filtered)-limit:]
	}
	return c.JSON(http.StatusOK, filtered)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, "streamscout.log")
}

// GetRecentLogs delegates to the configured provider.
func (s *Server) GetRecentLogs() []logger.LogEntry {
	if s.logsProvider == nil {
		return nil
	}
	return s.logsProvider.GetRecentLogs()
}

// GetLogFilePath delegates to the configured provider.
func (s *Server) GetLogFilePath() string {
	if s.logsProvider == nil {
		return ""
	}
	return s.logsProvider.GetLogFilePath()
}
