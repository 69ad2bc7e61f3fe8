package api

import (
	"time"

	"predigt/internal/config"
	"predigt/internal/deps"
	"predigt/internal/history"
	"predigt/internal/inventory"
	"predigt/internal/publish"
)

// StatusResponse reports backend liveness and configuration completeness.
type StatusResponse struct {
	BackendRunning bool `json:"backend_running"`
	ConfigLoaded   bool `json:"config_loaded"`
	config.Completeness
	FullyConfigured bool          `json:"fully_configured"`
	StartedAt       time.Time     `json:"started_at"`
	Dependencies    []deps.Status `json:"dependencies"`
}

// ProcessRequest is the body of POST /audio/process.
type ProcessRequest struct {
	ID      string `json:"id"`
	Speaker string `json:"speaker"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Publish bool   `json:"publish"`
}

// PublishRequest is the body of POST /audio/publish. FinalPath may be a bare
// file name inside the output directory or an absolute path below it.
type PublishRequest struct {
	FinalPath string `json:"final_path"`
}

// PublishResponse reports a completed delivery.
type PublishResponse struct {
	publish.Result
	Warning string `json:"warning,omitempty"`
}

// FilesResponse lists the newest remote sermons.
type FilesResponse struct {
	Files []inventory.Entry `json:"files"`
}

// ThemesResponse lists upcoming sermon themes from the website.
type ThemesResponse struct {
	Themes []string `json:"themes"`
}

// HistoryResponse lists recorded runs. Enabled is false when the ledger is off.
type HistoryResponse struct {
	Enabled bool          `json:"enabled"`
	Runs    []history.Run `json:"runs"`
}

// ErrorResponse is the body of every non-streaming error.
type ErrorResponse struct {
	Error string `json:"error"`
	Label string `json:"label,omitempty"`
}
