package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"predigt/internal/deps"
	"predigt/internal/inventory"
	"predigt/internal/logging"
	"predigt/internal/pipeline"
	"predigt/internal/progress"
	"predigt/internal/services"
	"predigt/internal/website"
	"predigt/internal/youtube"
)

const (
	defaultLivestreamLimit = 10
	maxLivestreamLimit     = 25
	defaultHistoryLimit    = 20
	maxListLimit           = 500
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	resp := StatusResponse{
		BackendRunning: true,
		StartedAt:      s.started.UTC(),
	}
	if snap != nil && snap.Config != nil {
		cfg := snap.Config
		resp.ConfigLoaded = true
		resp.Completeness = cfg.Completeness()
		resp.FullyConfigured = resp.Completeness.Fully()
		resp.Dependencies = deps.CheckToolchain(cfg.Paths.ToolsDir, cfg.Download.YtdlpBinary)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	s.writeJSON(w, http.StatusOK, snap.Config.PublicView())
}

func (s *Server) handleLivestreams(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultLivestreamLimit, maxLivestreamLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.Snapshot()
	streams, err := s.factory.Livestreams(snap, s.logger).Livestreams(r.Context(), limit)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, youtube.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err.Error())
		return
	}
	if streams == nil {
		streams = []youtube.Livestream{}
	}
	s.writeJSON(w, http.StatusOK, streams)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := pipeline.Request{
		SourceID: body.ID,
		Speaker:  body.Speaker,
		Title:    body.Title,
	}
	// A missing date is reported in-band by the orchestrator like any other
	// incomplete request; only malformed dates are rejected up front.
	if strings.TrimSpace(body.Date) != "" {
		date, err := pipeline.ParseDate(body.Date)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		req.Date = date
	}

	snap := s.Snapshot()
	runner := s.factory.Runner(snap, logging.WithContext(r.Context(), s.logger))

	// The stream outlives any server-wide write deadline.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	emitter := progress.NewNDJSONEmitter(w)
	if _, err := runner.Run(r.Context(), req, emitter, pipeline.RunOptions{Publish: body.Publish}); err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("process request ended with failure",
			logging.String("label", services.Label(err)),
		)
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var body PublishRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.Snapshot()
	path, err := resolveFinalPath(snap.Config.Paths.OutputDir, body.FinalPath)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	publisher := s.factory.Publisher(snap, logging.WithContext(r.Context(), s.logger))
	if publisher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "remote store not configured")
		return
	}
	result, err := publisher.Publish(r.Context(), path)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PublishResponse{Result: result, Warning: result.Warning()})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, inventory.DefaultLimit, maxListLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.Snapshot()
	if snap.Store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "remote store not configured")
		return
	}
	entries, err := inventory.New(snap.Store, s.logger).List(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []inventory.Entry{}
	}
	s.writeJSON(w, http.StatusOK, FilesResponse{Files: entries})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.factory.Themes(s.Snapshot()).Themes(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, website.ErrNoWebsite) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ThemesResponse{Themes: themes})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultHistoryLimit, maxListLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{Runs: nil})
		return
	}
	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Enabled: true, Runs: runs})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "run history disabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, ok, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// writeServiceError maps a classified failure to a status code.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	details := services.Details(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrAlreadyPublished):
		status = http.StatusConflict
	case services.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrPublishTransferFailed), errors.Is(err, services.ErrListingFailed):
		status = http.StatusBadGateway
	}
	message := details.Message
	if message == "" {
		message = err.Error()
	}
	s.writeJSON(w, status, ErrorResponse{Error: message, Label: details.Label})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryLimit(r *http.Request, def, ceiling int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(limit, ceiling), nil
}

// resolveFinalPath confines publish requests to the output directory.
func resolveFinalPath(outputDir, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", services.Wrap(services.ErrValidation, "publish", "request", "final_path is required", nil)
	}
	if !filepath.IsAbs(value) {
		value = filepath.Join(outputDir, value)
	}
	value = filepath.Clean(value)
	rel, err := filepath.Rel(filepath.Clean(outputDir), value)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "publish", "request", "final_path must be inside the output directory", err)
	}
	return value, nil
}
